package config

// Config is the merged Compass configuration.
type Config struct {
	DBPath   string         `mapstructure:"db_path" yaml:"db_path"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Missions MissionsConfig `mapstructure:"missions" yaml:"missions"`
	Calendar CalendarConfig `mapstructure:"calendar" yaml:"calendar"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
}

type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

type MissionsConfig struct {
	// DeletePolicy is one of "reject", "orphan" or "cascade".
	DeletePolicy string `mapstructure:"delete_policy" yaml:"delete_policy"`
}

type CalendarConfig struct {
	Name            string `mapstructure:"name" yaml:"name"`
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
	TokenFile       string `mapstructure:"token_file" yaml:"token_file"`
	// SyncDays bounds how far ahead dated tasks are pushed.
	SyncDays int `mapstructure:"sync_days" yaml:"sync_days"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}
