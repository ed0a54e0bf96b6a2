package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"recimpact/internal/causal"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)
	t.Setenv("RECIMPACT_MAX_SHOWN_RECS", "3")
	t.Setenv("DATASET_A", "a.csv")
	t.Setenv("DATASET_B", "/abs/b.csv")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MaxShownRecs != 3 {
		t.Errorf("Expected MaxShownRecs 3, got %d", cfg.MaxShownRecs)
	}
	if cfg.DatasetA != filepath.Join(dir, "a.csv") {
		t.Errorf("Expected relative dataset under DATA_PATH, got %s", cfg.DatasetA)
	}
	if cfg.DatasetB != "/abs/b.csv" {
		t.Errorf("Expected absolute dataset unchanged, got %s", cfg.DatasetB)
	}
	if got := cfg.ResolveDataset("a"); got != cfg.DatasetA {
		t.Errorf("Expected alias to resolve to %s, got %s", cfg.DatasetA, got)
	}
}

func TestLoad_InvalidCutoff(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())

	t.Setenv("RECIMPACT_MAX_SHOWN_RECS", "zero")
	if _, err := Load(); err == nil {
		t.Error("Expected error for non-numeric cutoff")
	}

	t.Setenv("RECIMPACT_MAX_SHOWN_RECS", "0")
	if _, err := Load(); !errors.Is(err, causal.ErrInvalidCutoff) {
		t.Errorf("Expected ErrInvalidCutoff, got %v", err)
	}
}

func TestResolveDataset(t *testing.T) {
	cfg := &AppConfig{DatasetA: "/data/a.csv", DatasetB: "/data/b.csv"}
	tests := map[string]string{
		"A":          "/data/a.csv",
		"b":          "/data/b.csv",
		"custom.csv": "custom.csv",
	}
	for in, want := range tests {
		if got := cfg.ResolveDataset(in); got != want {
			t.Errorf("ResolveDataset(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoad_DotEnvInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	content := "RECIMPACT_MAX_SHOWN_RECS=5\nDATASET_A='visits \"A\".csv'\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("DATA_PATH", dir)
	// Register restores, then clear so the .env values are picked up.
	for _, key := range []string{"RECIMPACT_MAX_SHOWN_RECS", "DATASET_A"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MaxShownRecs != 5 {
		t.Errorf("Expected MaxShownRecs 5 from .env, got %d", cfg.MaxShownRecs)
	}
	if want := filepath.Join(dir, `visits "A".csv`); cfg.DatasetA != want {
		t.Errorf("Expected %s, got %s", want, cfg.DatasetA)
	}
}
