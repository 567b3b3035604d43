package config

import "time"

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderGoogle ProviderType = "google"
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level krishi configuration, corresponding to .krishi.yml.
type Config struct {
	Provider     ProviderType  `yaml:"provider" koanf:"provider"`
	Model        string        `yaml:"model" koanf:"model"`
	TTSModel     string        `yaml:"tts_model" koanf:"tts_model"`
	Voice        string        `yaml:"voice" koanf:"voice"`
	Temperature  float64       `yaml:"temperature" koanf:"temperature"`
	RateLimitRPM int           `yaml:"rate_limit_rpm" koanf:"rate_limit_rpm"`
	DataDir      string        `yaml:"data_dir" koanf:"data_dir"`
	LogLevel     string        `yaml:"log_level" koanf:"log_level"`
	Server       ServerConfig  `yaml:"server" koanf:"server"`
	Weather      WeatherConfig `yaml:"weather" koanf:"weather"`
	Auth         AuthConfig    `yaml:"auth" koanf:"auth"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}

// WeatherConfig holds settings for the weather API.
type WeatherConfig struct {
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	Units   string `yaml:"units" koanf:"units"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" koanf:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl" koanf:"token_ttl"`
}
