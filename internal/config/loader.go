package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	dirName   = ".compass"
	fileName  = "config.yaml"
	envPrefix = "COMPASS"
)

// Load merges defaults, the global config, the project config and COMPASS_*
// environment variables, in that order.
func Load() (*Config, error) {
	home, _ := os.UserHomeDir()
	cwd, _ := os.Getwd()

	var paths []string
	if home != "" {
		paths = append(paths, filepath.Join(home, dirName, fileName))
	}
	if cwd != "" && cwd != home {
		paths = append(paths, filepath.Join(cwd, dirName, fileName))
	}
	return LoadFrom(paths...)
}

// LoadFrom is Load with explicit file paths; missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		if err := loadFile(path, cfg); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return err
	}
	return v.Unmarshal(cfg)
}

func applyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	keys := []string{
		"db_path", "log.level", "log.development", "missions.delete_policy",
		"calendar.name", "calendar.credentials_file", "calendar.token_file",
		"calendar.sync_days", "server.addr",
	}
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return fmt.Errorf("bind env %s: %w", k, err)
		}
	}
	if s := v.GetString("db_path"); s != "" {
		cfg.DBPath = s
	}
	if s := v.GetString("log.level"); s != "" {
		cfg.Log.Level = s
	}
	if v.IsSet("log.development") {
		cfg.Log.Development = v.GetBool("log.development")
	}
	if s := v.GetString("missions.delete_policy"); s != "" {
		cfg.Missions.DeletePolicy = s
	}
	if s := v.GetString("calendar.name"); s != "" {
		cfg.Calendar.Name = s
	}
	if s := v.GetString("calendar.credentials_file"); s != "" {
		cfg.Calendar.CredentialsFile = s
	}
	if s := v.GetString("calendar.token_file"); s != "" {
		cfg.Calendar.TokenFile = s
	}
	if n := v.GetInt("calendar.sync_days"); n > 0 {
		cfg.Calendar.SyncDays = n
	}
	if s := v.GetString("server.addr"); s != "" {
		cfg.Server.Addr = s
	}
	return nil
}

// Validate rejects values the engine cannot act on.
func (c *Config) Validate() error {
	switch c.Missions.DeletePolicy {
	case "reject", "orphan", "cascade":
	default:
		return fmt.Errorf("missions.delete_policy: unknown policy %q", c.Missions.DeletePolicy)
	}
	if c.Calendar.SyncDays <= 0 {
		return fmt.Errorf("calendar.sync_days must be positive")
	}
	return nil
}

// Save writes cfg as YAML, creating the parent directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// GlobalPath returns ~/.compass/config.yaml.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, dirName, fileName), nil
}

// Dir returns ~/.compass, where calendar credentials live by default.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// ResolveFile makes a relative path absolute under Dir.
func ResolveFile(path string) (string, error) {
	if path == "" || filepath.IsAbs(path) {
		return path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, path), nil
}
