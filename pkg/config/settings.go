package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Settings struct {
	ListenAddr    string           `mapstructure:"listen_addr" validate:"required"`
	AllowUserIDs  []string         `mapstructure:"allow_user_ids"`
	Line          LineSettings     `mapstructure:"line"`
	Archive       ArchiveSettings  `mapstructure:"archive"`
	Storage       StorageSettings  `mapstructure:"storage"`
	Metadata      MetadataSettings `mapstructure:"metadata"`
	Workers       WorkerSettings   `mapstructure:"workers"`
	Observability Observability    `mapstructure:"observability"` // Observability settings
}

func (c *Settings) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

func LoadFromFile(filePath string) (*Settings, error) {

	env := getEnvWithDefaultLookup("ENVIRONMENT", "development")

	cfg := &Settings{}
	viper.SetConfigType("yaml") // Set the config type to YAML
	viper.SetConfigName("relay")
	viper.AddConfigPath(filePath) // path to config
	viper.AddConfigPath(".")      // current directory

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("No config file found or read error: %v (will rely on env)", err)
	}

	err := mergeConfig(filePath, "relay."+env)
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Printf("Error merging dev config: %s\n", err)
			os.Exit(1)
		}
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		log.Fatalf("Failed to load from env: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	return cfg, nil
}

func (c *Settings) LoadFromEnv() error {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("RELAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // env vars like RELAY_LINE_ACCESS_TOKEN

	// Bind environment variables explicitly to ensure they map correctly
	viper.BindEnv("listen_addr")
	viper.BindEnv("allow_user_ids")
	viper.BindEnv("line.access_token")
	viper.BindEnv("line.channel_secret")
	viper.BindEnv("line.api_base")
	viper.BindEnv("line.content_api_base")
	viper.BindEnv("archive.url")
	viper.BindEnv("archive.token")
	viper.BindEnv("archive.correspondent")
	viper.BindEnv("archive.storage_path")
	viper.BindEnv("archive.tags")
	viper.BindEnv("storage.path")
	viper.BindEnv("metadata.type")
	viper.BindEnv("metadata.path")
	viper.BindEnv("metadata.dsn")
	viper.BindEnv("metadata.uri")
	viper.BindEnv("observability.service_name")
	viper.BindEnv("observability.tracing_url")

	if err := viper.Unmarshal(&c); err != nil {
		return err
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("listen_addr", ":3000")
	viper.SetDefault("line.api_base", "https://api.line.me")
	viper.SetDefault("line.content_api_base", "https://api-data.line.me")
	viper.SetDefault("line.request_timeout", 30*time.Second)
	viper.SetDefault("archive.user_field", 1)
	viper.SetDefault("archive.message_field", 2)
	viper.SetDefault("archive.extensions", []string{".pdf"})
	viper.SetDefault("archive.task_poll_interval", 5*time.Second)
	viper.SetDefault("archive.task_poll_budget", 10*time.Minute)
	viper.SetDefault("archive.request_timeout", 60*time.Second)
	viper.SetDefault("metadata.type", "file")
	viper.SetDefault("workers.tick_interval", time.Second)
	viper.SetDefault("workers.max_attempts", 3)
	viper.SetDefault("workers.retry_min", 3*time.Second)
	viper.SetDefault("workers.retry_max", 10*time.Second)
	viper.SetDefault("workers.transcode_wait_min", 10*time.Second)
	viper.SetDefault("workers.transcode_wait_max", 60*time.Second)
}

func mergeConfig(path string, name string) error {
	viper.SetConfigName(name)
	viper.AddConfigPath(path)
	err := viper.MergeInConfig()
	if err != nil {
		return err
	}
	return nil
}

func getEnvWithDefaultLookup(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
