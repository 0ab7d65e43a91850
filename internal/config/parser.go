package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type jsoncConfig struct {
	Server   *jsoncServer   `json:"server"`
	Audio    *jsoncAudio    `json:"audio"`
	Playback *jsoncPlayback `json:"playback"`
	Auth     *jsoncAuth     `json:"auth"`
	Debug    *jsoncDebug    `json:"debug"`
}

type jsoncServer struct {
	BaseURL   *string `json:"base_url"`
	TimeoutMS *int    `json:"timeout_ms"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncPlayback struct {
	Enable           *bool `json:"enable"`
	FeedbackAutoplay *bool `json:"feedback_autoplay"`
}

type jsoncAuth struct {
	TokenPath *string `json:"token_path"`
}

type jsoncDebug struct {
	KeepRecordings *bool `json:"keep_recordings"`
}

// Parse reads JSONC configuration content layered over base defaults.
func Parse(content string, base Config) (Config, []Warning, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}

	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, fmt.Errorf("parse JSONC config: %w", err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, err
	}

	cfg := base
	payload.applyTo(&cfg)

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload jsoncConfig) applyTo(cfg *Config) {
	if payload.Server != nil {
		if payload.Server.BaseURL != nil {
			cfg.Server.BaseURL = strings.TrimSpace(*payload.Server.BaseURL)
		}
		if payload.Server.TimeoutMS != nil {
			cfg.Server.TimeoutMS = *payload.Server.TimeoutMS
		}
	}

	if payload.Audio != nil {
		if payload.Audio.Input != nil {
			cfg.Audio.Input = *payload.Audio.Input
		}
		if payload.Audio.Fallback != nil {
			cfg.Audio.Fallback = *payload.Audio.Fallback
		}
	}

	if payload.Playback != nil {
		if payload.Playback.Enable != nil {
			cfg.Playback.Enable = *payload.Playback.Enable
		}
		if payload.Playback.FeedbackAutoplay != nil {
			cfg.Playback.FeedbackAutoplay = *payload.Playback.FeedbackAutoplay
		}
	}

	if payload.Auth != nil && payload.Auth.TokenPath != nil {
		cfg.Auth.TokenPath = strings.TrimSpace(*payload.Auth.TokenPath)
	}

	if payload.Debug != nil && payload.Debug.KeepRecordings != nil {
		cfg.Debug.KeepRecordings = *payload.Debug.KeepRecordings
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return errors.New("config contains trailing content after the JSONC object")
	}
	return nil
}

func normalizeJSONC(content string) (string, error) {
	withoutComments, err := stripJSONCComments(content)
	if err != nil {
		return "", err
	}
	return stripJSONCTrailingCommas(withoutComments), nil
}

// stripJSONCComments blanks // and /* */ comments, preserving line positions.
func stripJSONCComments(content string) (string, error) {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false
	lineComment := false
	blockComment := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if lineComment {
			if ch == '\n' || ch == '\r' {
				lineComment = false
				out.WriteByte(ch)
				continue
			}
			out.WriteByte(' ')
			continue
		}

		if blockComment {
			if ch == '*' && i+1 < len(content) && content[i+1] == '/' {
				blockComment = false
				out.WriteString("  ")
				i++
				continue
			}
			if ch == '\n' || ch == '\r' || ch == '\t' {
				out.WriteByte(ch)
			} else {
				out.WriteByte(' ')
			}
			continue
		}

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == '/' && i+1 < len(content) {
			switch content[i+1] {
			case '/':
				lineComment = true
				out.WriteString("  ")
				i++
				continue
			case '*':
				blockComment = true
				out.WriteString("  ")
				i++
				continue
			}
		}

		out.WriteByte(ch)
	}

	if blockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}

	return out.String(), nil
}

// stripJSONCTrailingCommas removes commas directly preceding } or ].
func stripJSONCTrailingCommas(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inString := false
	escape := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			out.WriteByte(ch)
			if escape {
				escape = false
				continue
			}
			if ch == '\\' {
				escape = true
				continue
			}
			if ch == '"' {
				inString = false
			}
			continue
		}

		if ch == '"' {
			inString = true
			out.WriteByte(ch)
			continue
		}

		if ch == ',' {
			j := i + 1
			for j < len(content) {
				next := content[j]
				if next == ' ' || next == '\t' || next == '\n' || next == '\r' {
					j++
					continue
				}
				break
			}
			if j < len(content) && (content[j] == '}' || content[j] == ']') {
				out.WriteByte(' ')
				continue
			}
		}

		out.WriteByte(ch)
	}

	return out.String()
}
