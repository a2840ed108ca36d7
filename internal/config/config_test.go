package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
		check   func(*Config) bool
	}{
		{
			name: "loads explicit values",
			envVars: map[string]string{
				"PORT":          "8080",
				"ENV":           "production",
				"DATABASE_URL":  "postgres://localhost/test",
				"CACHE_BACKEND": "postgres",
				"STYLE_API_URL": "https://styles.example.com",
				"STYLE_API_KEY": "key-123",
			},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 8080 &&
					c.Environment == "production" &&
					c.DatabaseURL == "postgres://localhost/test" &&
					c.CacheBackend == "postgres" &&
					c.RemoteEnabled()
			},
		},
		{
			name:    "uses defaults when optional vars missing",
			envVars: map[string]string{},
			wantErr: false,
			check: func(c *Config) bool {
				return c.Port == 3000 &&
					c.Environment == "development" &&
					c.CacheBackend == "memory" &&
					c.FaceDetector == "cascade" &&
					c.StylePollInterval == 3*time.Second &&
					c.StylePollAttempts == 5 &&
					c.StyleAPITimeout == 45*time.Second &&
					!c.RemoteEnabled()
			},
		},
		{
			name: "fails when postgres cache has no DATABASE_URL",
			envVars: map[string]string{
				"CACHE_BACKEND": "postgres",
			},
			wantErr: true,
		},
		{
			name: "fails when redis cache has no REDIS_ADDR",
			envVars: map[string]string{
				"CACHE_BACKEND": "redis",
			},
			wantErr: true,
		},
		{
			name: "fails on unknown face detector",
			envVars: map[string]string{
				"FACE_DETECTOR": "pigo",
			},
			wantErr: true,
		},
		{
			name: "fails on zero poll attempts",
			envVars: map[string]string{
				"STYLE_POLL_ATTEMPTS": "0",
			},
			wantErr: true,
		},
		{
			name: "fails on malformed duration",
			envVars: map[string]string{
				"CACHE_TTL": "forever",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear environment
			os.Clearenv()

			// Set test environment variables
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("Load() unexpected error: %v", err)
				return
			}

			if tt.check != nil && !tt.check(cfg) {
				t.Errorf("Load() config check failed, got: %+v", cfg)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"development", "development", true},
		{"production", "production", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsDevelopment(); got != tt.want {
				t.Errorf("IsDevelopment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfig_IsProduction(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"production", "production", true},
		{"development", "development", false},
		{"staging", "staging", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Environment: tt.env}
			if got := c.IsProduction(); got != tt.want {
				t.Errorf("IsProduction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in     string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" warn ", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"", 0, false},
		{"verbose", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseLevel(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("parseLevel(%q) ok = %v, want %v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"production", "development", "staging"} {
		t.Run(env, func(t *testing.T) {
			if NewLogger(env, "") == nil {
				t.Fatal("NewLogger returned nil")
			}
		})
	}
}
