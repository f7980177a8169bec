package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type SessionConfig struct {
	DefaultMinutes       int `mapstructure:"default_minutes"`
	KeepAwakeIntervalSec int `mapstructure:"keep_awake_interval_seconds"`
}

type Config struct {
	DatabasePath string        `mapstructure:"database_path"`
	SocketPath   string        `mapstructure:"socket_path"`
	SoundsDir    string        `mapstructure:"sounds_dir"`
	Player       string        `mapstructure:"player"` // override the audio player binary
	Session      SessionConfig `mapstructure:"session"`
}

func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")                // name of config file (without extension)
		viper.SetConfigType("yaml")                  // REQUIRED if the config file does not have the extension in the name
		viper.AddConfigPath(".")                     // optionally look for config in the working directory
		viper.AddConfigPath("$HOME/.config/enfoque") // call multiple times to add many search paths
		viper.AddConfigPath("/etc/enfoque/")         // path to look for the config file in
	}

	viper.SetEnvPrefix("ENFOQUE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// Set defaults
	viper.SetDefault("database_path", "enfoque.db")
	viper.SetDefault("socket_path", "/tmp/enfoque.sock")
	viper.SetDefault("sounds_dir", "sounds")
	viper.SetDefault("player", "")
	viper.SetDefault("session.default_minutes", 25)
	viper.SetDefault("session.keep_awake_interval_seconds", 30)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error if defaults are okay
			log.Println("Config file not found, using defaults.")
		} else {
			// Config file was found but another error was produced
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Session.DefaultMinutes < 1 {
		log.Println("Warning: session.default_minutes too low, setting to 1")
		cfg.Session.DefaultMinutes = 1
	}
	if cfg.Session.KeepAwakeIntervalSec < 5 {
		log.Println("Warning: session.keep_awake_interval_seconds too low, setting to 5")
		cfg.Session.KeepAwakeIntervalSec = 5
	}

	log.Printf("Configuration loaded: %+v", cfg)
	return &cfg, nil
}

func (s SessionConfig) DefaultDuration() time.Duration {
	return time.Duration(s.DefaultMinutes) * time.Minute
}

func (s SessionConfig) KeepAwakeInterval() time.Duration {
	return time.Duration(s.KeepAwakeIntervalSec) * time.Second
}
