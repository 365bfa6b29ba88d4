package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the editor's process configuration. Values come from
// .scenecore.yaml, SCENECORE_* environment variables, and flags, in rising
// precedence.
type Config struct {
	DBPath       string `mapstructure:"db_path"`
	BlobDriver   string `mapstructure:"blob_driver"`
	BlobRoot     string `mapstructure:"blob_root"`
	ExportPrefix string `mapstructure:"export_prefix"`
	LogLevel     string `mapstructure:"log_level"`
}

// LoadConfig reads configuration, tolerating a missing config file.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("db_path", "scenecore.db")
	v.SetDefault("blob_driver", "fs")
	v.SetDefault("blob_root", "artifacts")
	v.SetDefault("export_prefix", "")
	v.SetDefault("log_level", "info")
	v.SetConfigName(".scenecore")
	v.SetEnvPrefix("SCENECORE")
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath("./")
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			if path != "" || !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}
