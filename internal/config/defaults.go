package config

import "time"

// ModelPreset describes the models to use for a provider.
type ModelPreset struct {
	Model string
}

// modelPresets maps each provider to its default model choice.
var modelPresets = map[ProviderType]ModelPreset{
	ProviderGoogle: {Model: "gemini-2.5-flash"},
	ProviderOpenAI: {Model: "gpt-4o-mini"},
	ProviderOllama: {Model: "llava"},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Provider:     ProviderGoogle,
		Model:        "gemini-2.5-flash",
		TTSModel:     "gemini-2.5-flash-preview-tts",
		Voice:        "Algenib",
		Temperature:  0.7,
		RateLimitRPM: 0,
		DataDir:      ".krishi",
		LogLevel:     "info",
		Server: ServerConfig{
			Port: 8080,
		},
		Weather: WeatherConfig{
			BaseURL: "https://api.openweathermap.org/data/2.5",
			Units:   "metric",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
	}
}

// GetPreset returns the preset for the given provider, falling back to
// Google's.
func GetPreset(provider ProviderType) ModelPreset {
	if preset, ok := modelPresets[provider]; ok {
		return preset
	}
	return modelPresets[ProviderGoogle]
}
