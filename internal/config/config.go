package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix for environment variables
	EnvPrefix = "NOTIONCTL"

	// ConfigFileName is the name of the config file
	ConfigFileName = "config"
	// ConfigFileType is the type of the config file
	ConfigFileType = "toml"

	// TokenFileName is the name of the integration token file
	TokenFileName = "token.json"
	// SessionFileName is the name of the browser session file
	SessionFileName = "session.json"
)

// Backend names accepted in config and on the command line.
const (
	BackendOfficial = "official"
	BackendSession  = "session"
)

// Config holds the application configuration
type Config struct {
	Backend      string `mapstructure:"backend"`
	Token        string `mapstructure:"token"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`

	// Session credentials, populated from the session file when the
	// session backend is active.
	SessionToken string `mapstructure:"-"`
	UserID       string `mapstructure:"user_id"`
	SpaceID      string `mapstructure:"space_id"`
}

// TokenData holds the OAuth token data for the official backend
type TokenData struct {
	AccessToken   string `json:"access_token"`
	TokenType     string `json:"token_type"`
	BotID         string `json:"bot_id"`
	WorkspaceID   string `json:"workspace_id"`
	WorkspaceName string `json:"workspace_name"`
}

// SessionData holds the browser session credentials for the session backend
type SessionData struct {
	TokenV2 string `json:"token_v2"`
	UserID  string `json:"user_id"`
	SpaceID string `json:"space_id"`
}

// Load loads configuration from environment variables, credential
// files and the config file, in that order. The backend follows the
// credential that won: an explicit token selects the official backend,
// a saved session selects the session backend.
func Load() (*Config, error) {
	fileCfg, err := loadFile()
	if err != nil {
		return nil, err
	}

	// Environment tokens win over everything
	if token := os.Getenv(EnvPrefix + "_TOKEN"); token != "" {
		fileCfg.Token = token
		fileCfg.Backend = BackendOfficial
		return fileCfg, nil
	}
	if token := os.Getenv("NOTION_TOKEN"); token != "" {
		fileCfg.Token = token
		fileCfg.Backend = BackendOfficial
		return fileCfg, nil
	}

	// Explicit backend preference from the config file
	switch fileCfg.Backend {
	case BackendSession:
		if err := attachSession(fileCfg); err != nil {
			return nil, err
		}
		return fileCfg, nil
	case BackendOfficial:
		attachToken(fileCfg)
		return fileCfg, nil
	case "":
		// fall through to credential discovery
	default:
		return nil, fmt.Errorf("unknown backend: %s", fileCfg.Backend)
	}

	// No preference: saved session first, then saved token
	if session, err := LoadSession(); err == nil && session.TokenV2 != "" {
		fileCfg.Backend = BackendSession
		fileCfg.SessionToken = session.TokenV2
		if fileCfg.UserID == "" {
			fileCfg.UserID = session.UserID
		}
		if fileCfg.SpaceID == "" {
			fileCfg.SpaceID = session.SpaceID
		}
		return fileCfg, nil
	}
	attachToken(fileCfg)
	if fileCfg.Token != "" {
		fileCfg.Backend = BackendOfficial
	}
	return fileCfg, nil
}

func attachToken(cfg *Config) {
	if cfg.Token != "" {
		return
	}
	if token, err := LoadToken(); err == nil {
		cfg.Token = token.AccessToken
	}
}

func attachSession(cfg *Config) error {
	session, err := LoadSession()
	if err != nil {
		return fmt.Errorf("session backend selected but no session saved: %w", err)
	}
	cfg.SessionToken = session.TokenV2
	if cfg.UserID == "" {
		cfg.UserID = session.UserID
	}
	if cfg.SpaceID == "" {
		cfg.SpaceID = session.SpaceID
	}
	return nil
}

func loadFile() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	configDir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	v.SetConfigName(ConfigFileName)
	v.SetConfigType(ConfigFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return &Config{}, nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// LoadOAuthConfig loads OAuth-specific configuration
func LoadOAuthConfig() (*Config, error) {
	clientID := os.Getenv(EnvPrefix + "_CLIENT_ID")
	clientSecret := os.Getenv(EnvPrefix + "_CLIENT_SECRET")

	if clientID != "" && clientSecret != "" {
		return &Config{ClientID: clientID, ClientSecret: clientSecret}, nil
	}

	return loadFile()
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "notionctl"), nil
}

// ConfigFilePath returns the path of the config file, whether or not
// it exists yet.
func ConfigFilePath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, ConfigFileName+"."+ConfigFileType), nil
}

// EnsureConfigDir ensures the configuration directory exists
func EnsureConfigDir() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(configDir, 0700)
}

func credentialPath(name string) (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, name), nil
}

func saveCredential(name string, value any) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path, err := credentialPath(name)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func loadCredential(name string, out any) error {
	path, err := credentialPath(name)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return nil
}

func deleteCredential(name string) error {
	path, err := credentialPath(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// SaveToken saves the OAuth token to the token file
func SaveToken(token *TokenData) error {
	return saveCredential(TokenFileName, token)
}

// LoadToken loads the OAuth token from the token file
func LoadToken() (*TokenData, error) {
	var token TokenData
	if err := loadCredential(TokenFileName, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// DeleteToken deletes the OAuth token file
func DeleteToken() error {
	return deleteCredential(TokenFileName)
}

// SaveSession saves the browser session to the session file
func SaveSession(session *SessionData) error {
	if session.TokenV2 == "" {
		return fmt.Errorf("token_v2 is required")
	}
	return saveCredential(SessionFileName, session)
}

// LoadSession loads the browser session from the session file
func LoadSession() (*SessionData, error) {
	var session SessionData
	if err := loadCredential(SessionFileName, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// DeleteSession deletes the session file
func DeleteSession() error {
	return deleteCredential(SessionFileName)
}

// Validate checks if the configuration is usable for the selected backend
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSession:
		if c.SessionToken == "" {
			return fmt.Errorf("session is required. Run 'notionctl auth login --session'")
		}
		if c.UserID == "" || c.SpaceID == "" {
			return fmt.Errorf("user_id and space_id are required for the session backend")
		}
	default:
		if c.Token == "" {
			return fmt.Errorf("token is required. Run 'notionctl auth login' or set NOTIONCTL_TOKEN/NOTION_TOKEN environment variable")
		}
	}
	return nil
}

// ValidateOAuth checks if the OAuth configuration is valid
func (c *Config) ValidateOAuth() error {
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required. Set NOTIONCTL_CLIENT_ID environment variable or configure in ~/.config/notionctl/config.toml")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client_secret is required. Set NOTIONCTL_CLIENT_SECRET environment variable or configure in ~/.config/notionctl/config.toml")
	}
	return nil
}
