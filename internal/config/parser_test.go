package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEmptyContentReturnsDefaults(t *testing.T) {
	cfg, warnings, err := Parse("   \n", Default())
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Empty(t, warnings)
}

func TestParseJSONCWithCommentsAndTrailingCommas(t *testing.T) {
	content := `{
		// scoring backend
		"server": {
			"base_url": "https://api.example.test", /* staging */
			"timeout_ms": 15000,
		},
		"audio": {
			"input": "usb-mic",
		},
		"playback": {
			"feedback_autoplay": true,
		},
		"debug": {
			"keep_recordings": true,
		},
	}`

	cfg, warnings, err := Parse(content, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, "https://api.example.test", cfg.Server.BaseURL)
	require.Equal(t, 15000, cfg.Server.TimeoutMS)
	require.Equal(t, "usb-mic", cfg.Audio.Input)
	require.Equal(t, "default", cfg.Audio.Fallback)
	require.True(t, cfg.Playback.FeedbackAutoplay)
	require.True(t, cfg.Debug.KeepRecordings)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, _, err := Parse(`{"scoring": {"grpc": "x"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestParseRejectsTrailingContent(t *testing.T) {
	_, _, err := Parse(`{"audio": {"input": "mic"}} extra`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "trailing content")
}

func TestParseRejectsUnterminatedBlockComment(t *testing.T) {
	_, _, err := Parse(`{"audio": {"input": "mic"}} /* oops`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unterminated block comment")
}

func TestParsePreservesSlashesInsideStrings(t *testing.T) {
	cfg, _, err := Parse(`{"server": {"base_url": "http://host//echo"}}`, Default())
	require.NoError(t, err)
	require.Equal(t, "http://host//echo", cfg.Server.BaseURL)
}

func TestParseAuthTokenPathOverride(t *testing.T) {
	cfg, _, err := Parse(`{"auth": {"token_path": " /tmp/echo-token "}}`, Default())
	require.NoError(t, err)
	require.Equal(t, "/tmp/echo-token", cfg.Auth.TokenPath)
}
