package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Set required env vars for all subtests
	cleanup := setEnvs(t, map[string]string{
		"TRANSCRIBE_BASE_URL": "http://localhost:8000",
	})
	defer cleanup()

	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "info" {
			t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
		}
		if cfg.TranscribeTimeout != 5*time.Minute {
			t.Errorf("TranscribeTimeout = %v, want 5m", cfg.TranscribeTimeout)
		}
		if cfg.MaxUploadBytes != 524288000 {
			t.Errorf("MaxUploadBytes = %d, want 524288000", cfg.MaxUploadBytes)
		}
		if cfg.CORSOrigin != "*" {
			t.Errorf("CORSOrigin = %q, want *", cfg.CORSOrigin)
		}
	})

	t.Run("cli_overrides_take_priority", func(t *testing.T) {
		cfg, err := Load(Overrides{
			EnvFile:           "nonexistent.env",
			HTTPAddr:          ":9090",
			LogLevel:          "debug",
			TranscribeBaseURL: "http://override:8000",
			BackendURL:        "http://override-backend",
		})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
		}
		if cfg.TranscribeBaseURL != "http://override:8000" {
			t.Errorf("TranscribeBaseURL = %q, want override", cfg.TranscribeBaseURL)
		}
		if cfg.BackendURL != "http://override-backend" {
			t.Errorf("BackendURL = %q, want override", cfg.BackendURL)
		}
	})

	t.Run("env_vars_read", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.TranscribeBaseURL != "http://localhost:8000" {
			t.Errorf("TranscribeBaseURL = %q, want http://localhost:8000", cfg.TranscribeBaseURL)
		}
	})

	t.Run("empty_overrides_use_env", func(t *testing.T) {
		cfg, err := Load(Overrides{EnvFile: "nonexistent.env"})
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if cfg.TranscribeBaseURL != "http://localhost:8000" {
			t.Errorf("TranscribeBaseURL = %q, want env value", cfg.TranscribeBaseURL)
		}
	})
}

func TestLoadMissingRequired(t *testing.T) {
	cleanup := setEnvs(t, map[string]string{
		"TRANSCRIBE_BASE_URL": "",
	})
	defer cleanup()
	os.Unsetenv("TRANSCRIBE_BASE_URL")

	_, err := Load(Overrides{EnvFile: "nonexistent.env"})
	if err == nil {
		t.Error("expected error when required env vars are missing")
	}
}

// setEnvs sets environment variables and returns a cleanup function.
func setEnvs(t *testing.T, envs map[string]string) func() {
	t.Helper()
	originals := make(map[string]string)
	unset := make([]string, 0)

	for k, v := range envs {
		if orig, ok := os.LookupEnv(k); ok {
			originals[k] = orig
		} else {
			unset = append(unset, k)
		}
		os.Setenv(k, v)
	}

	return func() {
		for k, v := range originals {
			os.Setenv(k, v)
		}
		for _, k := range unset {
			os.Unsetenv(k)
		}
	}
}
