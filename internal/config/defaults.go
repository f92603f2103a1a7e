package config

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "warn",
		},
		Missions: MissionsConfig{
			DeletePolicy: "reject",
		},
		Calendar: CalendarConfig{
			Name:            "primary",
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
			SyncDays:        30,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8420",
		},
	}
}
