// Package config resolves, parses, validates, and defaults echo configuration.
package config

// Config is the fully materialized runtime configuration used by echo.
type Config struct {
	Server   ServerConfig
	Audio    AudioConfig
	Playback PlaybackConfig
	Auth     AuthConfig
	Debug    DebugConfig
}

// ServerConfig locates the remote scoring service.
type ServerConfig struct {
	BaseURL   string
	TimeoutMS int
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// PlaybackConfig controls reference/feedback audio playback behavior.
type PlaybackConfig struct {
	Enable           bool
	FeedbackAutoplay bool
}

// AuthConfig overrides credential storage location.
type AuthConfig struct {
	TokenPath string
}

// DebugConfig controls optional debug artifact retention.
type DebugConfig struct {
	KeepRecordings bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
