package config

import (
	"strings"
	"testing"
	"time"
)

func setFixtureEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SOURCE_DRIVER", DriverFixtures)
	t.Setenv("FIXTURES_DIR", t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	setFixtureEnv(t)
	t.Setenv("LOCALE", "en-US")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8084 {
		t.Errorf("Server.Port = %d, want 8084", cfg.Server.Port)
	}
	if cfg.Display.Currency != "USD" {
		t.Errorf("Display.Currency = %q, want USD", cfg.Display.Currency)
	}
	if cfg.Display.DefaultYear != "all" {
		t.Errorf("Display.DefaultYear = %q, want all", cfg.Display.DefaultYear)
	}
	if cfg.Display.LabelThreshold != 1000 {
		t.Errorf("Display.LabelThreshold = %d, want 1000", cfg.Display.LabelThreshold)
	}
	if !cfg.Display.ShowTopProductName || cfg.Display.ShowAllLabels {
		t.Errorf("unexpected label flags: %+v", cfg.Display)
	}
	if cfg.Source.Timeout != 15*time.Second {
		t.Errorf("Source.Timeout = %v, want 15s", cfg.Source.Timeout)
	}
	if got := cfg.Address(); got != "localhost:8084" {
		t.Errorf("Address() = %q", got)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setFixtureEnv(t)
	t.Setenv("DEFAULT_YEAR", "2018")
	t.Setenv("CURRENCY", "brl")
	t.Setenv("MAP_LABEL_THRESHOLD", "250")
	t.Setenv("MAP_SHOW_ALL_LABELS", "true")
	t.Setenv("SOURCE_TIMEOUT", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Display.DefaultYear != "2018" {
		t.Errorf("DefaultYear = %q", cfg.Display.DefaultYear)
	}
	if cfg.Display.Currency != "BRL" {
		t.Errorf("Currency = %q, want BRL", cfg.Display.Currency)
	}
	if cfg.Display.LabelThreshold != 250 || !cfg.Display.ShowAllLabels {
		t.Errorf("label settings = %+v", cfg.Display)
	}
	if cfg.Source.Timeout != 2*time.Second {
		t.Errorf("Source.Timeout = %v", cfg.Source.Timeout)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown driver",
			env:     map[string]string{"SOURCE_DRIVER": "sqlite"},
			wantErr: "invalid source driver",
		},
		{
			name:    "rest without url",
			env:     map[string]string{"SOURCE_DRIVER": DriverREST, "SUPABASE_URL": ""},
			wantErr: "SUPABASE_URL",
		},
		{
			name:    "postgres without dsn",
			env:     map[string]string{"SOURCE_DRIVER": DriverPostgres, "DATABASE_URL": ""},
			wantErr: "DATABASE_URL",
		},
		{
			name:    "bad default year",
			env:     map[string]string{"SOURCE_DRIVER": DriverFixtures, "DEFAULT_YEAR": "18"},
			wantErr: "default year",
		},
		{
			name:    "bad currency",
			env:     map[string]string{"SOURCE_DRIVER": DriverFixtures, "CURRENCY": "DOLLAR"},
			wantErr: "currency",
		},
		{
			name:    "bad log level",
			env:     map[string]string{"SOURCE_DRIVER": DriverFixtures, "LOG_LEVEL": "verbose"},
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil {
				t.Fatal("Load() expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestRuntimeLocale(t *testing.T) {
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_NUMERIC", "")
	t.Setenv("LANG", "pt_BR.UTF-8")
	if got := runtimeLocale(); got != "pt-BR" {
		t.Errorf("runtimeLocale() = %q, want pt-BR", got)
	}

	t.Setenv("LANG", "C")
	if got := runtimeLocale(); got != "en-US" {
		t.Errorf("runtimeLocale() = %q, want en-US", got)
	}
}
