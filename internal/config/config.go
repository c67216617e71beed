package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

// LocalConfig describes the on-device cache database.
type LocalConfig struct {
	Path          string `mapstructure:"path"`
	LogMode       bool   `mapstructure:"log_mode"`
	EncryptionKey string `mapstructure:"encryption_key"`
}

// RemoteConfig describes the shared record store. Driver is "postgres" or
// "sqlite"; for sqlite the DSN is a file path.
type RemoteConfig struct {
	Driver  string `mapstructure:"driver"`
	DSN     string `mapstructure:"dsn"`
	LogMode bool   `mapstructure:"log_mode"`
	// TimeoutSeconds bounds the remote fetch when a session opens its
	// records; past it the cached copy is used.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// AIConfig holds the two OpenAI-compatible collaborators. They use separate
// keys so the vision quota can be managed independently.
type AIConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	ChatAPIKey     string `mapstructure:"chat_api_key"`
	ChatModel      string `mapstructure:"chat_model"`
	VisionAPIKey   string `mapstructure:"vision_api_key"`
	VisionModel    string `mapstructure:"vision_model"`
	MaxImagePx     int    `mapstructure:"max_image_px"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type LogConfig struct {
	File    string `mapstructure:"file"`
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Local  LocalConfig  `mapstructure:"local"`
	Remote RemoteConfig `mapstructure:"remote"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	AI     AIConfig     `mapstructure:"ai"`
	Log    LogConfig    `mapstructure:"log"`
}

var (
	appConfig *Config
	once      sync.Once
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")

	v.SetDefault("local.path", "data/local.db")

	v.SetDefault("remote.driver", "sqlite")
	v.SetDefault("remote.dsn", "data/remote.db")
	v.SetDefault("remote.timeout_seconds", 10)

	v.SetDefault("jwt.issuer", "ai-financer")
	v.SetDefault("jwt.expire_hours", 24*7)

	v.SetDefault("ai.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("ai.chat_model", "llama-3.1-8b-instant")
	v.SetDefault("ai.vision_model", "meta-llama/llama-4-scout-17b-16e-instruct")
	v.SetDefault("ai.max_image_px", 1600)

	v.SetDefault("log.level", "info")
}

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it looks for "config.yaml" in the current working
// directory and falls back to defaults plus environment when none exists.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()
		setDefaults(v)

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		// environment overrides, e.g. AIF_SERVER_PORT=9000
		v.SetEnvPrefix("AIF")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		if err = v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if path != "" || !errors.As(err, &notFound) {
				err = fmt.Errorf("read config: %w", err)
				return
			}
			err = nil
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}
