// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package config_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/tattoodirectory/catalog/config"
)

func TestBindAppliesDefaults(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cfg := &config.Config{}
	config.Bind(cmd, cfg)

	require.NoError(t, cmd.Flags().Parse(nil))
	require.NoError(t, config.Load(cmd))

	require.Equal(t, "tattoo-catalog", cfg.Catalog.TableName)
	require.Equal(t, 10, cfg.Worker.Concurrency)
	require.Equal(t, ":8080", cfg.API.Address)
}

func TestLoadEnvOverridesUnsetFlag(t *testing.T) {
	t.Setenv("CATALOG_QUEUE_REDIS_ADDR", "redis.internal:6379")

	cmd := &cobra.Command{Use: "test"}
	cfg := &config.Config{}
	config.Bind(cmd, cfg)

	require.NoError(t, cmd.Flags().Parse(nil))
	require.NoError(t, config.Load(cmd))

	require.Equal(t, "redis.internal:6379", cfg.Queue.RedisAddr)
}

func TestExplicitFlagWinsOverEnv(t *testing.T) {
	t.Setenv("CATALOG_QUEUE_REDIS_ADDR", "redis.internal:6379")

	cmd := &cobra.Command{Use: "test"}
	cfg := &config.Config{}
	config.Bind(cmd, cfg)

	require.NoError(t, cmd.Flags().Parse([]string{"--queue.redis-addr=explicit:6379"}))
	require.NoError(t, config.Load(cmd))

	require.Equal(t, "explicit:6379", cfg.Queue.RedisAddr)
}
