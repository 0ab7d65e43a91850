// Package doctor runs runtime readiness diagnostics for config, server, credentials, and audio.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/yaplingo/echo/internal/audio"
	"github.com/yaplingo/echo/internal/auth"
	"github.com/yaplingo/echo/internal/config"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded, tokenPath string) Report {
	checks := []Check{}

	configMessage := fmt.Sprintf("loaded %q", cfg.Path)
	if !cfg.Exists {
		configMessage = fmt.Sprintf("no file at %q, using defaults", cfg.Path)
	}
	checks = append(checks, Check{Name: "config", Pass: true, Message: configMessage})

	for _, warning := range cfg.Warnings {
		checks = append(checks, Check{
			Name:    "config.warning",
			Pass:    true,
			Message: warning.Message,
		})
	}

	checks = append(checks, checkServerReachable(ctx, cfg.Config.Server.BaseURL))
	checks = append(checks, checkCredential(tokenPath))
	checks = append(checks, checkAudioSelection(ctx, cfg.Config))
	checks = append(checks, checkEnv("XDG_RUNTIME_DIR", func(v string) bool {
		return strings.TrimSpace(v) != ""
	}, "runtime dir available for control socket", "XDG_RUNTIME_DIR is empty; session control socket unavailable"))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkServerReachable probes the configured server with a short deadline.
// Any HTTP response counts as reachable; auth failures are a separate concern.
func checkServerReachable(ctx context.Context, baseURL string) Check {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		return Check{Name: "server.reachable", Pass: false, Message: "server.base_url is empty"}
	}

	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, strings.TrimRight(base, "/")+"/", nil)
	if err != nil {
		return Check{Name: "server.reachable", Pass: false, Message: fmt.Sprintf("bad base URL: %v", err)}
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Check{Name: "server.reachable", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	return Check{Name: "server.reachable", Pass: true, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, base)}
}

// checkCredential reports whether a stored session credential exists.
func checkCredential(tokenPath string) Check {
	store, err := auth.Open(tokenPath)
	if err != nil {
		return Check{Name: "auth.credential", Pass: false, Message: err.Error()}
	}
	if !store.Authed() {
		return Check{Name: "auth.credential", Pass: false, Message: "no stored credential; run `echo login` first"}
	}
	return Check{Name: "auth.credential", Pass: true, Message: fmt.Sprintf("credential present at %q", tokenPath)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}
