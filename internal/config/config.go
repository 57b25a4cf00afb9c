package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Server  ServerConfig  `mapstructure:"server"`
	History HistoryConfig `mapstructure:"history"`
	Log     LogConfig     `mapstructure:"log"`
}

// LLMConfig holds the model provider configuration. The API key itself is
// never part of the file; non-interactive front-ends read it from the
// environment variable named by APIKeyEnv.
type LLMConfig struct {
	Provider     string `mapstructure:"provider"`
	BaseURL      string `mapstructure:"base_url"`
	Model        string `mapstructure:"model"`
	SystemPrompt string `mapstructure:"system_prompt"`
	APIKeyEnv    string `mapstructure:"api_key_env"`
}

// ServerConfig holds the server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

// HistoryConfig selects the transcript backend.
type HistoryConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	HistoryDriverMemory = "memory"
	HistoryDriverSQLite = "sqlite"

	DefaultModel      = "gemini-3-flash-preview"
	DefaultAPIKeyEnv  = "GEMINI_API_KEY"
	DefaultHistoryDSN = "file:tutor?mode=memory&cache=shared"
)

// Load loads the configuration from config.yaml in the working directory, or
// from the file named by CONFIG_PATH. A missing file is not an error; the
// defaults and TUTOR_* environment variables still apply.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_PATH"))
}

// LoadFrom loads the configuration from path, or from config.yaml in the
// working directory when path is empty.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("tutor")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.model", DefaultModel)
	v.SetDefault("llm.api_key_env", DefaultAPIKeyEnv)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.system_prompt", "")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", "8080")
	v.SetDefault("history.driver", HistoryDriverMemory)
	v.SetDefault("history.dsn", DefaultHistoryDSN)
	v.SetDefault("log.level", "info")
}

// APIKeyFromEnv returns the API key exported in the configured environment
// variable, or an empty string.
func (c LLMConfig) APIKeyFromEnv() string {
	name := c.APIKeyEnv
	if name == "" {
		name = DefaultAPIKeyEnv
	}
	return os.Getenv(name)
}
