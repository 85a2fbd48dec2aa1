package core

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
	StorageSqlite = "sqlite"
)

// Config is read once at startup. Zero values are replaced by env-default,
// so "unlimited" is spelled -1: history_tail: -1 shows the whole
// conversation and rate_limit.per_minute: -1 disables rate limiting.
type Config struct {
	Env            string            `yaml:"env" env:"ENV" env-default:"prod"`
	TelegramApiKey string            `yaml:"telegram_api_key" env:"TELEGRAM_BOT_TOKEN" env-default:""`
	Username       string            `yaml:"username" env:"BOT_USERNAME" env-default:""`
	DefaultModel   string            `yaml:"default_model" env:"DEFAULT_MODEL" env-default:"qwen2.5-omni-7b"`
	Models         []ModelDescriptor `yaml:"models"`
	HistoryTail    int               `yaml:"history_tail" env-default:"5"`
	NoResponseText string            `yaml:"no_response_text" env-default:"No response."`
	Api            struct {
		BaseURL string        `yaml:"base_url" env:"API_BASE_URL" env-default:""`
		Timeout time.Duration `yaml:"timeout" env-default:"60s"`
	} `yaml:"api"`
	Reply struct {
		InlineLimit int    `yaml:"inline_limit" env-default:"1999"`
		FileName    string `yaml:"file_name" env-default:"response.txt"`
		TempDir     string `yaml:"temp_dir" env-default:""`
	} `yaml:"reply"`
	Ocr struct {
		Languages []string `yaml:"languages" env-default:"rus,eng"`
	} `yaml:"ocr"`
	RateLimit struct {
		PerMinute float64 `yaml:"per_minute" env-default:"20"`
		Burst     int     `yaml:"burst" env-default:"5"`
	} `yaml:"rate_limit"`
	Storage struct {
		Driver     string `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
		SqlitePath string `yaml:"sqlite_path" env-default:"data/sessions.db"`
	} `yaml:"storage"`
	Mongo struct {
		Host     string `yaml:"host" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env-default:"27017"`
		User     string `yaml:"user" env-default:"admin"`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:"pass"`
		Database string `yaml:"database" env-default:"qwenbot"`
	} `yaml:"mongo"`
}

// GetConfig reads the YAML file at path and applies environment overrides.
// A missing file is not an error: the configuration then comes from the
// environment alone.
func GetConfig(path string) (*Config, error) {
	conf := &Config{}
	var err error
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		err = cleanenv.ReadEnv(conf)
	} else {
		err = cleanenv.ReadConfig(path, conf)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("config: %s; %s", err, desc)
	}
	if len(conf.Models) == 0 {
		conf.Models = DefaultModels()
	}
	if err = conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func MustLoad(path string) *Config {
	conf, err := GetConfig(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return conf
}

func (c *Config) Validate() error {
	if c.TelegramApiKey == "" {
		return fmt.Errorf("config: telegram_api_key is required")
	}
	if c.Api.BaseURL == "" {
		return fmt.Errorf("config: api.base_url is required")
	}
	if _, ok := NewCatalog(c.Models).Lookup(c.DefaultModel); !ok {
		return fmt.Errorf("config: default model %q is not in the catalog", c.DefaultModel)
	}
	if c.Reply.InlineLimit <= 0 {
		return fmt.Errorf("config: reply.inline_limit must be positive")
	}
	switch c.Storage.Driver {
	case StorageMemory, StorageMongo, StorageSqlite:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}
