package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Setting describes one configurable key for the config subcommands.
type Setting struct {
	Key         string
	Description string
	Default     string
	Secret      bool
	Get         func(*Config) string
	Validate    func(string) error
}

// Settings is the table of keys that config get/set operate on.
var Settings = []Setting{
	{
		Key:         "backend",
		Description: "API backend to use (official or session)",
		Default:     BackendOfficial,
		Get:         func(c *Config) string { return c.Backend },
		Validate: func(v string) error {
			switch v {
			case BackendOfficial, BackendSession, "":
				return nil
			}
			return fmt.Errorf("backend must be %q or %q", BackendOfficial, BackendSession)
		},
	},
	{
		Key:         "token",
		Description: "Integration token for the official backend",
		Secret:      true,
		Get:         func(c *Config) string { return c.Token },
	},
	{
		Key:         "client_id",
		Description: "OAuth client id",
		Get:         func(c *Config) string { return c.ClientID },
	},
	{
		Key:         "client_secret",
		Description: "OAuth client secret",
		Secret:      true,
		Get:         func(c *Config) string { return c.ClientSecret },
	},
	{
		Key:         "user_id",
		Description: "User id for the session backend",
		Get:         func(c *Config) string { return c.UserID },
	},
	{
		Key:         "space_id",
		Description: "Workspace id for the session backend",
		Get:         func(c *Config) string { return c.SpaceID },
	},
}

// LookupSetting finds a setting by key.
func LookupSetting(key string) (*Setting, error) {
	for i := range Settings {
		if Settings[i].Key == key {
			return &Settings[i], nil
		}
	}
	return nil, fmt.Errorf("unknown config key: %s", key)
}

// WriteSetting persists a key into the config file, creating the file
// if needed. Keys not in the Settings table are rejected.
func WriteSetting(key, value string) error {
	setting, err := LookupSetting(key)
	if err != nil {
		return err
	}
	if setting.Validate != nil {
		if err := setting.Validate(value); err != nil {
			return err
		}
	}

	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.Set(key, value)

	path, err := ConfigFilePath()
	if err != nil {
		return err
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
