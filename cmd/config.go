package cmd

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds tool configuration loaded from file and environment.
type Config struct {
	DevMode         bool   `mapstructure:"dev_mode"`
	FirmwareKeyPath string `mapstructure:"firmware_key_path"`
	MaxPriority     int    `mapstructure:"max_priority"`
}

// LoadConfig loads tool configuration using Viper.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("vbgpt-config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.vbgpt")
	viper.AddConfigPath("/etc/vbgpt")

	// Set defaults
	viper.SetDefault("dev_mode", false)
	viper.SetDefault("firmware_key_path", "")
	viper.SetDefault("max_priority", 15)

	// Allow environment variables
	viper.SetEnvPrefix("VBGPT")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
