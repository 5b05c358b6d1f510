package main

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultProfile = "default"

// configProfile holds connection settings for a single profile.
type configProfile struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// configFile is ~/.revisor/config.yaml. The top-level url/api_key pair is
// accepted for hand-written files; profiles override it.
type configFile struct {
	URL           string                   `yaml:"url,omitempty"`
	APIKey        string                   `yaml:"api_key,omitempty"`
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

// active returns the URL and key of the active profile, falling back to the
// flat fields for anything the profile leaves empty.
func (c *configFile) active() (url, apiKey string) {
	url, apiKey = c.URL, c.APIKey

	name := c.ActiveProfile
	if name == "" {
		name = defaultProfile
	}

	if p, ok := c.Profiles[name]; ok {
		if p.URL != "" {
			url = p.URL
		}
		if p.APIKey != "" {
			apiKey = p.APIKey
		}
	}

	return url, apiKey
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".revisor"), nil
}

// loadConfigFile reads and parses the config file. The path is returned even
// when reading fails so callers can report it.
func loadConfigFile() (string, *configFile, error) {
	dir, err := configDir()
	if err != nil {
		return "", nil, err
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return cfgPath, nil, err
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfgPath, nil, err
	}

	return cfgPath, &cfg, nil
}

// writeConfig stores url and apiKey as the given profile and makes it
// active. Other profiles in an existing file are preserved.
func writeConfig(profile, url, apiKey string) (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}

	cfg := &configFile{}
	if _, existing, err := loadConfigFile(); err == nil {
		cfg = existing
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]configProfile)
	}
	if profile == "" {
		profile = defaultProfile
	}

	cfg.Profiles[profile] = configProfile{URL: url, APIKey: apiKey}
	cfg.ActiveProfile = profile

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		return "", err
	}

	return cfgPath, nil
}
