// Package config provides configuration loading and validation.
//
// It uses Viper to load configuration from config.yml files and environment
// variables, with godotenv picking up .env files from standard locations.
// Application configs embed ServiceConfig and add their own sections.
//
// # Usage
//
//	type AppConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Storage storage.Config `yaml:"storage" mapstructure:"storage"`
//	}
//	var cfg AppConfig
//	err := config.LoadConfig("video2markdown", &cfg)
//
// Environment variables override file values using underscore-separated
// paths (e.g., STORAGE_BASE_PATH maps to storage.base_path).
package config
