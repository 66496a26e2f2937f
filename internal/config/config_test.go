package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store != StoreFile || cfg.StatePath != "./data/farm.json" {
		t.Fatalf("unexpected store defaults: %+v", cfg)
	}
	if cfg.TickSet {
		t.Fatalf("tick should not be set by default")
	}
	if cfg.Genesis.EndTick != math.MaxUint64 {
		t.Fatalf("end tick default: %d", cfg.Genesis.EndTick)
	}
	if cfg.RetryBackoff != 500*time.Millisecond || cfg.MaxRetries != 5 {
		t.Fatalf("retry defaults: %+v", cfg)
	}
}

func TestLoadFlagsAndEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FARM_PG_DSN", "postgres://farm@localhost/farm")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("store", "file", "")
	flags.Uint64("tick", 0, "")
	flags.String("log-level", "info", "")
	if err := flags.Parse([]string{"--store", "postgres", "--tick", "77"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store != StorePostgres || cfg.PGDSN != "postgres://farm@localhost/farm" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !cfg.TickSet || cfg.Tick != 77 {
		t.Fatalf("tick not picked up: %+v", cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "farm.yaml")
	data := "store: bolt\nbolt: " + filepath.Join(dir, "farm.db") + "\nadmin: \"0xAd00000000000000000000000000000000000001\"\nbase-rate: \"7\"\nend-tick: 500\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Store != StoreBolt || cfg.Genesis.BaseRate != "7" || cfg.Genesis.EndTick != 500 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	if err := (Config{Store: "sqlite"}).Validate(); err == nil {
		t.Fatalf("expected error for unknown store")
	}
	if err := (Config{Store: StorePostgres}).Validate(); err == nil {
		t.Fatalf("expected error for missing dsn")
	}
}

func TestParseAddresses(t *testing.T) {
	got, err := ParseAddresses([]string{" 0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa", "", "0xbBbBBBBBbbBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(got))
	}
	if _, err := ParseAddresses([]string{"0x1234"}); err == nil {
		t.Fatalf("expected error for short address")
	}
}
