package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaultsPass(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateBaseURLRules(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr string
	}{
		{name: "empty", baseURL: "", wantErr: "must not be empty"},
		{name: "relative", baseURL: "/echo", wantErr: "absolute URL"},
		{name: "missing scheme", baseURL: "host:8000", wantErr: "absolute URL"},
		{name: "bad scheme", baseURL: "ftp://host", wantErr: "not http(s)"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Server.BaseURL = tc.baseURL
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateTimeout(t *testing.T) {
	cfg := Default()
	cfg.Server.TimeoutMS = 0
	_, err := Validate(cfg)
	require.Error(t, err)

	cfg.Server.TimeoutMS = 500
	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "very low")
}

func TestValidateFeedbackAutoplayWithoutPlayback(t *testing.T) {
	cfg := Default()
	cfg.Playback.Enable = false
	cfg.Playback.FeedbackAutoplay = true

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "no effect")
}
