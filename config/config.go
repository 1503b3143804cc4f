// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package config binds the top-level Config struct every cmd/ binary
// shares to a cobra command's flags, layering environment variables on
// top via viper — the same pflag+viper+cobra trio the teacher's
// cmd/satellite and cmd/storagenode use, adapted from pkg/cfgstruct's
// bind-then-layer pattern.
package config

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tattoodirectory/catalog/internal/cfgstruct"
)

// envPrefix namespaces every bound environment variable, e.g.
// CATALOG_QUEUE_REDIS_ADDR.
const envPrefix = "catalog"

// CatalogConfig configures the single-table catalog store.
type CatalogConfig struct {
	TableName string `default:"tattoo-catalog"`
	Region    string `default:"us-east-1"`
}

// IndexConfig configures the Elasticsearch-backed search index.
type IndexConfig struct {
	ElasticsearchURL string `default:"http://localhost:9200"`
	IndexName        string `default:"artists"`
}

// QueueConfig configures the at-least-once job queue.
type QueueConfig struct {
	RedisAddr   string `default:"localhost:6379"`
	MaxAttempts int    `default:"5"`
}

// WorkerConfig configures the scrape worker pool (C4).
type WorkerConfig struct {
	Concurrency       int           `default:"10"`
	RateLimitPerSec   float64       `default:"1"`
	RateBurst         int           `default:"3"`
	VisibilityTimeout time.Duration `default:"5m"`
	FetchTimeout      time.Duration `default:"10s"`
}

// ProjectorConfig configures the change-stream projector (C2).
type ProjectorConfig struct {
	NumShards    int           `default:"4"`
	PollInterval time.Duration `default:"1s"`
	BatchSize    int           `default:"50"`
	MaxAttempts  int           `default:"5"`
}

// OrchestratorConfig configures the stage machine (C5).
type OrchestratorConfig struct {
	DiscoverySourceURL     string        `default:""`
	FindArtistsConcurrency int           `default:"8"`
	DrainPollInterval      time.Duration `default:"2s"`
	DrainDeadline          time.Duration `default:"30m"`
}

// TakedownConfig configures the takedown sweep chore.
type TakedownConfig struct {
	SweepInterval time.Duration `default:"1h"`
}

// APIConfig configures the query API's HTTP front door (C6).
type APIConfig struct {
	Address             string        `default:":8080"`
	ShutdownTimeout     time.Duration `default:"10s"`
	OperatorAPIKey      string        `default:""`
	DefaultLimit        int           `default:"20"`
	BreakerThreshold    int           `default:"5"`
	BreakerResetTimeout time.Duration `default:"30s"`
}

// LogConfig configures the process-wide logger.
type LogConfig struct {
	Level       string `default:"info"`
	Development bool   `default:"false"`
}

// Config is the full process configuration every cmd/ binary loads a
// subset of. Every environment variable named in spec §6 is a leaf
// field here, reachable as CATALOG_<DOTTED_PATH>.
type Config struct {
	Catalog      CatalogConfig
	Index        IndexConfig
	Queue        QueueConfig
	Worker       WorkerConfig
	Projector    ProjectorConfig
	Orchestrator OrchestratorConfig
	Takedown     TakedownConfig
	API          APIConfig
	Log          LogConfig
}

// Bind registers cfg's fields as flags on cmd, so `--help` documents
// every knob and cobra parses CLI overrides directly into cfg.
func Bind(cmd *cobra.Command, cfg *Config) {
	cfgstruct.Bind(cmd.Flags(), cfg)
}

// Load layers environment variables over whatever cmd.Flags() parsed
// from the command line: a flag the user did not pass explicitly is
// overridden by its environment variable if one is set, leaving
// defaults as the final fallback. Call after cmd.Flags().Parse (cobra
// does this itself before RunE runs).
func Load(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	var firstErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || firstErr != nil {
			return
		}
		if !v.IsSet(f.Name) {
			return
		}
		if err := f.Value.Set(v.GetString(f.Name)); err != nil {
			firstErr = err
		}
	})
	return firstErr
}
