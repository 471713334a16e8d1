package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config interface {
	EnvConfig
	OAuthConfig
	SecurityConfig
}

type mainConfig struct {
	EnvVars
	OAuth
	Security
}

// New returns the configuration of the example client. Values come from environment
// variables first, then from the YAML file at path (skipped when path is empty), then
// from defaults.
func New(path string) (Config, error) {
	src := source{}
	if path != "" {
		file, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		src.file = file
	}
	return mainConfig{
		EnvVars:  EnvVars{src},
		OAuth:    OAuth{src},
		Security: Security{src},
	}, nil
}

// source resolves a key from the environment, then the config file.
type source struct {
	file map[string]string
}

func (s source) get(key, defaultValue string) string {
	if value, ok := s.file[key]; ok && value != "" {
		defaultValue = value
	}
	return GetEnv(key, defaultValue)
}

// loadFile reads a flat YAML mapping. Keys are matched case-insensitively against the
// environment variable names, so client_id and CLIENT_ID are the same key.
func loadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	raw := map[string]string{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	file := make(map[string]string, len(raw))
	for k, v := range raw {
		file[strings.ToUpper(k)] = v
	}
	return file, nil
}
