package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	base := strings.TrimSpace(cfg.Server.BaseURL)
	if base == "" {
		return nil, fmt.Errorf("server.base_url must not be empty")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("server.base_url %q must be an absolute URL", base)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("server.base_url scheme %q is not http(s)", parsed.Scheme)
	}

	if cfg.Server.TimeoutMS <= 0 {
		return nil, fmt.Errorf("server.timeout_ms must be positive")
	}
	if cfg.Server.TimeoutMS < 2000 {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("server.timeout_ms=%d is very low; uploads may fail", cfg.Server.TimeoutMS),
		})
	}

	if strings.TrimSpace(cfg.Audio.Input) == "" {
		return nil, fmt.Errorf("audio.input must not be empty")
	}

	if cfg.Playback.FeedbackAutoplay && !cfg.Playback.Enable {
		warnings = append(warnings, Warning{
			Message: "playback.feedback_autoplay has no effect while playback.enable is false",
		})
	}

	return warnings, nil
}
