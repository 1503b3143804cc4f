// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Command orchestrator runs one pass of the stage machine (C5):
// discover studios, find their artists, enqueue scrape jobs, drain the
// queue, and report. Intended to be invoked on a schedule (cron,
// EventBridge) rather than run as a long-lived server.
package main

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tattoodirectory/catalog/catalog/changefeed"
	"github.com/tattoodirectory/catalog/catalog/dynamostore"
	"github.com/tattoodirectory/catalog/config"
	"github.com/tattoodirectory/catalog/internal/logging"
	"github.com/tattoodirectory/catalog/orchestrator"
	orchestratordynamostore "github.com/tattoodirectory/catalog/orchestrator/dynamostore"
	"github.com/tattoodirectory/catalog/queue/redisqueue"
)

func main() {
	cfg := &config.Config{}
	cmd := &cobra.Command{
		Use:   "orchestrator",
		Short: "run one scrape-orchestration pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(cmd); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	config.Bind(cmd, cfg)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	log, err := logging.New(parseLevel(cfg.Log.Level), cfg.Log.Development)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Catalog.Region))
	if err != nil {
		return err
	}
	dynamoClient := dynamodb.NewFromConfig(awsCfg)

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Queue.RedisAddr})
	feed := changefeed.New(redisClient, cfg.Projector.NumShards)
	catalogStore := dynamostore.New(dynamoClient, cfg.Catalog.TableName, feed)
	q := redisqueue.New(redisClient, cfg.Queue.MaxAttempts, nil)

	orch := &orchestrator.Orchestrator{
		Config: orchestrator.Config{
			FindArtistsConcurrency: cfg.Orchestrator.FindArtistsConcurrency,
			DrainPollInterval:      cfg.Orchestrator.DrainPollInterval,
			DrainDeadline:          cfg.Orchestrator.DrainDeadline,
		},
		Discoverer:   orchestrator.NewHTTPDiscoverer(cfg.Orchestrator.DiscoverySourceURL, "orchestrator-feed", cfg.Worker.FetchTimeout),
		ArtistFinder: orchestrator.NewHTTPArtistFinder("/artists.json", cfg.Worker.FetchTimeout),
		Catalog:      catalogStore,
		Queue:        q,
		Depth:        q,
		Stats:        orchestratordynamostore.NewStats(dynamoClient, cfg.Catalog.TableName, log),
		Runs:         orchestratordynamostore.New(dynamoClient, cfg.Catalog.TableName),
		Log:          log,
	}

	summary, err := orch.Run(ctx)
	if err != nil {
		return err
	}

	log.Info("scrape run complete",
		zap.String("scrape_run_id", summary.ScrapeRunID),
		zap.String("final_state", string(summary.FinalState)),
		zap.Int("studios_discovered", summary.StudiosDiscovered),
		zap.Int("artists_found", summary.ArtistsFound),
		zap.Int("artists_queued", summary.ArtistsQueued),
		zap.Float64("success_rate", summary.SuccessRate()))

	if summary.FinalState == orchestrator.StateFailed {
		return fmt.Errorf("scrape run %s failed: %s", summary.ScrapeRunID, summary.FailReason)
	}
	return nil
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}
