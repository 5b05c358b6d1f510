package main

import (
	"os"
	"path/filepath"
	"testing"
)

// resetFlags restores global flag state after each test.
func resetFlags(t *testing.T) {
	t.Helper()
	orig := struct{ url, key, fmt string }{flagURL, flagKey, flagFmt}
	t.Cleanup(func() {
		flagURL = orig.url
		flagKey = orig.key
		flagFmt = orig.fmt
	})
}

// unsetEnv temporarily unsets an environment variable and restores it on cleanup.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	prev, exists := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if exists {
			os.Setenv(key, prev)
		} else {
			os.Unsetenv(key)
		}
	})
}

// isolate clears REVISOR_* variables and points HOME at a fresh directory.
func isolate(t *testing.T) string {
	t.Helper()
	resetFlags(t)
	unsetEnv(t, "REVISOR_URL")
	unsetEnv(t, "REVISOR_API_KEY")
	home := t.TempDir()
	t.Setenv("HOME", home)
	flagURL = defaultURL
	flagKey = ""
	return home
}

func writeConfigFile(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, ".revisor")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestResolveConfigEnv(t *testing.T) {
	isolate(t)
	t.Setenv("REVISOR_URL", "http://env-server:9090")
	t.Setenv("REVISOR_API_KEY", "secret-key-from-env")

	resolveConfig()

	if flagURL != "http://env-server:9090" {
		t.Errorf("flagURL: got %q, want %q", flagURL, "http://env-server:9090")
	}
	if flagKey != "secret-key-from-env" {
		t.Errorf("flagKey: got %q, want %q", flagKey, "secret-key-from-env")
	}
}

func TestResolveConfigFlagTakesPrecedenceOverEnv(t *testing.T) {
	isolate(t)
	t.Setenv("REVISOR_URL", "http://env-server:9090")

	flagURL = "http://explicit-flag:1234"
	resolveConfig()

	if flagURL != "http://explicit-flag:1234" {
		t.Errorf("explicit flag should win; got %q", flagURL)
	}
}

func TestResolveConfigFlatYAML(t *testing.T) {
	home := isolate(t)
	writeConfigFile(t, home, "url: http://from-file:8080\napi_key: file-key\n")

	resolveConfig()

	if flagURL != "http://from-file:8080" {
		t.Errorf("flagURL from flat config: got %q", flagURL)
	}
	if flagKey != "file-key" {
		t.Errorf("flagKey from flat config: got %q", flagKey)
	}
}

func TestResolveConfigActiveProfile(t *testing.T) {
	home := isolate(t)
	writeConfigFile(t, home, `
active_profile: staging
profiles:
  default:
    url: http://default:3040
    api_key: default-key
  staging:
    url: http://staging:4040
    api_key: staging-key
`)

	resolveConfig()

	if flagURL != "http://staging:4040" {
		t.Errorf("flagURL from profile: got %q", flagURL)
	}
	if flagKey != "staging-key" {
		t.Errorf("flagKey from profile: got %q", flagKey)
	}
}

func TestResolveConfigDefaultProfile(t *testing.T) {
	home := isolate(t)
	writeConfigFile(t, home, `
profiles:
  default:
    url: http://default-profile:5050
    api_key: default-profile-key
`)

	resolveConfig()

	if flagURL != "http://default-profile:5050" {
		t.Errorf("flagURL from default profile: got %q", flagURL)
	}
}

func TestResolveConfigMissingOrInvalidFile(t *testing.T) {
	home := isolate(t)
	resolveConfig()
	if flagURL != defaultURL || flagKey != "" {
		t.Errorf("missing file should leave defaults; got %q %q", flagURL, flagKey)
	}

	writeConfigFile(t, home, ":::not-yaml:::")
	resolveConfig()
	if flagURL != defaultURL {
		t.Errorf("bad YAML should leave defaults; got %q", flagURL)
	}
}

func TestResolveConfigEnvNotOverriddenByFile(t *testing.T) {
	home := isolate(t)
	t.Setenv("REVISOR_API_KEY", "env-wins-key")
	writeConfigFile(t, home, "url: http://file:9000\napi_key: file-key\n")

	resolveConfig()

	if flagKey != "env-wins-key" {
		t.Errorf("flagKey should be env value; got %q", flagKey)
	}
	if flagURL != "http://file:9000" {
		t.Errorf("flagURL should come from file; got %q", flagURL)
	}
}

func TestWriteConfigKeepsOtherProfiles(t *testing.T) {
	isolate(t)

	if _, err := writeConfig("", "http://a:1", "key-a"); err != nil {
		t.Fatal(err)
	}
	cfgPath, err := writeConfig("prod", "http://b:2", "key-b")
	if err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config permissions: got %o, want 600", perm)
	}

	_, cfg, err := loadConfigFile()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ActiveProfile != "prod" {
		t.Errorf("active profile: got %q, want prod", cfg.ActiveProfile)
	}
	if cfg.Profiles[defaultProfile].APIKey != "key-a" {
		t.Errorf("default profile lost: %+v", cfg.Profiles)
	}
	if url, key := cfg.active(); url != "http://b:2" || key != "key-b" {
		t.Errorf("active() = %q %q", url, key)
	}
}

func TestDoctorResolveSettingsDoesNotTouchFlags(t *testing.T) {
	isolate(t)
	t.Setenv("REVISOR_URL", "http://env:1")

	cfg := &configFile{Profiles: map[string]configProfile{defaultProfile: {URL: "http://file:2", APIKey: "file-key"}}}
	url, key := doctorResolveSettings(cfg)

	if url != "http://env:1" {
		t.Errorf("url: got %q, want env value", url)
	}
	if key != "file-key" {
		t.Errorf("key: got %q, want file value", key)
	}
	if flagURL != defaultURL || flagKey != "" {
		t.Errorf("globals modified: %q %q", flagURL, flagKey)
	}
}
