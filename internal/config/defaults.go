package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:   "http://127.0.0.1:8000",
			TimeoutMS: 30_000,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Playback: PlaybackConfig{
			Enable:           true,
			FeedbackAutoplay: false,
		},
		Auth:  AuthConfig{},
		Debug: DebugConfig{},
	}
}
