package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// GlobalConfig holds the defaults stored in config.json
type GlobalConfig struct {
	APIURL string `json:"api_url,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

var (
	getConfigDirFunc  = defaultGetConfigDir
	getConfigPathFunc = defaultGetConfigPath
)

func defaultGetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "prepwise"), nil
}

func defaultGetConfigPath() (string, error) {
	configDir, err := getConfigDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetConfigDir returns the platform-specific configuration directory
func GetConfigDir() (string, error) {
	return getConfigDirFunc()
}

// GetConfigPath returns the full path to the config.json file
func GetConfigPath() (string, error) {
	return getConfigPathFunc()
}

// LoadGlobalConfig reads and parses the global config.json file.
// Returns nil config (not error) if file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config GlobalConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveGlobalConfig writes the config to config.json with 0600 permissions
func SaveGlobalConfig(config *GlobalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigSource reports where a setting came from
type ConfigSource string

const (
	SourceFlag         ConfigSource = "flag"
	SourceEnv          ConfigSource = "env"
	SourceGlobalConfig ConfigSource = "global_config"
	SourceDefault      ConfigSource = "default"
)

// ResolvedConfig is the effective client configuration.
type ResolvedConfig struct {
	APIURL       string
	APIURLSource ConfigSource
	UserID       string
	UserIDSource ConfigSource
}

// ResolveConfig applies the cascade flag → env → global config → default.
func ResolveConfig(flagAPIURL, flagUserID string) (*ResolvedConfig, error) {
	resolved := &ResolvedConfig{
		APIURL:       flagAPIURL,
		APIURLSource: SourceFlag,
		UserID:       flagUserID,
		UserIDSource: SourceFlag,
	}

	if resolved.APIURL == "" {
		resolved.APIURL, resolved.APIURLSource = os.Getenv(envAPIURL), SourceEnv
	}
	if resolved.UserID == "" {
		resolved.UserID, resolved.UserIDSource = os.Getenv(envUserID), SourceEnv
	}

	if resolved.APIURL == "" || resolved.UserID == "" {
		global, err := LoadGlobalConfig()
		if err != nil {
			return nil, err
		}
		if global != nil {
			if resolved.APIURL == "" && global.APIURL != "" {
				resolved.APIURL, resolved.APIURLSource = global.APIURL, SourceGlobalConfig
			}
			if resolved.UserID == "" && global.UserID != "" {
				resolved.UserID, resolved.UserIDSource = global.UserID, SourceGlobalConfig
			}
		}
	}

	if resolved.APIURL == "" {
		resolved.APIURL, resolved.APIURLSource = defaultAPIURL, SourceDefault
	}
	if resolved.UserID == "" {
		resolved.UserIDSource = SourceDefault
	}

	return resolved, nil
}
