package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Store backends.
const (
	StoreFile     = "file"
	StoreBolt     = "bolt"
	StorePostgres = "postgres"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	Store        string
	StatePath    string
	BoltPath     string
	PGDSN        string
	EventsPath   string
	RPCURL       string
	Tick         uint64
	TickSet      bool
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
	Genesis      Genesis
}

// Genesis holds the settings used once, when the ledger is created.
type Genesis struct {
	Admin       string
	Custody     string
	RewardAsset string
	StartTick   uint64
	EndTick     uint64
	BaseRate    string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FARM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("store", StoreFile)
	v.SetDefault("state", "./data/farm.json")
	v.SetDefault("bolt", "./data/farm.db")
	v.SetDefault("events", "./data/events.jsonl")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")
	v.SetDefault("start-tick", uint64(0))
	v.SetDefault("end-tick", uint64(math.MaxUint64))
	v.SetDefault("base-rate", "0")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		Store:        strings.ToLower(strings.TrimSpace(v.GetString("store"))),
		StatePath:    v.GetString("state"),
		BoltPath:     v.GetString("bolt"),
		PGDSN:        v.GetString("pg-dsn"),
		EventsPath:   v.GetString("events"),
		RPCURL:       v.GetString("rpc"),
		Tick:         v.GetUint64("tick"),
		TickSet:      v.IsSet("tick"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
		LogLevel:     v.GetString("log-level"),
		Genesis: Genesis{
			Admin:       v.GetString("admin"),
			Custody:     v.GetString("custody"),
			RewardAsset: v.GetString("reward-asset"),
			StartTick:   v.GetUint64("start-tick"),
			EndTick:     v.GetUint64("end-tick"),
			BaseRate:    v.GetString("base-rate"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the store selection against its required settings.
func (c Config) Validate() error {
	switch c.Store {
	case StoreFile:
		if c.StatePath == "" {
			return fmt.Errorf("state path is required for the file store")
		}
	case StoreBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("bolt path is required for the bolt store")
		}
	case StorePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("pg dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q (want %s, %s or %s)", c.Store, StoreFile, StoreBolt, StorePostgres)
	}
	return nil
}
