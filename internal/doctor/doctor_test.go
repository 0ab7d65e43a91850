package doctor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yaplingo/echo/internal/config"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestReportOKAllPassing(t *testing.T) {
	report := Report{Checks: []Check{{Name: "one", Pass: true}, {Name: "two", Pass: true}}}
	require.True(t, report.OK())
}

func TestCheckEnv(t *testing.T) {
	t.Setenv("TEST_DOCTOR_ENV", "/run/user/1000")

	check := checkEnv(
		"TEST_DOCTOR_ENV",
		func(v string) bool { return strings.TrimSpace(v) != "" },
		"looks good",
		"unexpected",
	)

	require.True(t, check.Pass)
	require.Equal(t, "looks good", check.Message)
}

func TestCheckServerReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	check := checkServerReachable(context.Background(), server.URL)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "HTTP 404")
}

func TestCheckServerReachableEmptyURL(t *testing.T) {
	check := checkServerReachable(context.Background(), "")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "base_url is empty")
}

func TestCheckServerReachableConnectionFailure(t *testing.T) {
	check := checkServerReachable(context.Background(), "http://127.0.0.1:1")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "request failed")
}

func TestCheckCredentialMissing(t *testing.T) {
	check := checkCredential(filepath.Join(t.TempDir(), "token"))
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "no stored credential")
}

func TestCheckCredentialPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("tok-123\n"), 0o600))

	check := checkCredential(path)
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "credential present")
}

func TestCheckAudioSelectionFailureWithInvalidPulseServer(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")

	check := checkAudioSelection(context.Background(), config.Default())
	require.False(t, check.Pass)
	require.Contains(t, check.Name, "audio.device")
}

func TestRunCollectsCoreChecks(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	cfg := config.Default()
	cfg.Server.BaseURL = server.URL

	report := Run(context.Background(), config.Loaded{Path: "/tmp/config.jsonc", Config: cfg, Exists: true},
		filepath.Join(t.TempDir(), "token"))

	names := map[string]bool{}
	for _, check := range report.Checks {
		names[check.Name] = check.Pass
	}
	require.True(t, names["config"])
	require.True(t, names["server.reachable"])
	require.Contains(t, names, "auth.credential")
	require.Contains(t, names, "audio.device")
	require.Contains(t, names, "XDG_RUNTIME_DIR")
}
