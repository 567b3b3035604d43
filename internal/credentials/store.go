// Package credentials stores service API keys outside the project config.
package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Services that take an API key.
const (
	Google      = "google"
	OpenAI      = "openai"
	OpenWeather = "openweather"
)

// envVars lists the environment variables checked for each service, in order.
var envVars = map[string][]string{
	Google:      {"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	OpenAI:      {"OPENAI_API_KEY"},
	OpenWeather: {"OPENWEATHER_API_KEY"},
}

// APIKeyCredentials stores an API key for a service.
type APIKeyCredentials struct {
	APIKey string `json:"api_key,omitempty"`
}

// Credentials holds stored credentials for all services.
type Credentials struct {
	Google      *APIKeyCredentials `json:"google,omitempty"`
	OpenAI      *APIKeyCredentials `json:"openai,omitempty"`
	OpenWeather *APIKeyCredentials `json:"openweather,omitempty"`
}

// dirOverride replaces the home directory in tests.
var dirOverride string

// Path returns the path to the credentials file (~/.krishi/credentials.json).
func Path() (string, error) {
	if dirOverride != "" {
		return filepath.Join(dirOverride, "credentials.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".krishi", "credentials.json"), nil
}

// Load reads the credentials file. A missing file yields empty credentials.
func Load() (*Credentials, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return &creds, nil
}

// Save writes credentials with owner-only permissions.
func Save(creds *Credentials) error {
	path, err := Path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating credentials directory: %w", err)
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}
	return nil
}

// Set stores key for service, keeping the other services' keys.
func Set(service, key string) error {
	if _, ok := envVars[service]; !ok {
		return fmt.Errorf("unknown service %q: must be one of %v", service, Services())
	}
	creds, err := Load()
	if err != nil {
		return err
	}
	entry := &APIKeyCredentials{APIKey: key}
	switch service {
	case Google:
		creds.Google = entry
	case OpenAI:
		creds.OpenAI = entry
	case OpenWeather:
		creds.OpenWeather = entry
	}
	return Save(creds)
}

// Services returns the names accepted by Set and APIKey.
func Services() []string {
	out := make([]string, 0, len(envVars))
	for s := range envVars {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// EnvVar returns the primary environment variable for service.
func EnvVar(service string) string {
	if vars := envVars[service]; len(vars) > 0 {
		return vars[0]
	}
	return ""
}

// APIKey returns the key for service. Environment variables win over the
// stored file.
func APIKey(service string) string {
	for _, v := range envVars[service] {
		if key := os.Getenv(v); key != "" {
			return key
		}
	}

	creds, err := Load()
	if err != nil {
		return ""
	}
	var entry *APIKeyCredentials
	switch service {
	case Google:
		entry = creds.Google
	case OpenAI:
		entry = creds.OpenAI
	case OpenWeather:
		entry = creds.OpenWeather
	}
	if entry == nil {
		return ""
	}
	return entry.APIKey
}
