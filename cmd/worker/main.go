// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Command worker runs the scrape worker pool (C4), draining the job
// queue and upserting parsed artist records into the catalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/catalog/changefeed"
	"github.com/tattoodirectory/catalog/catalog/dynamostore"
	"github.com/tattoodirectory/catalog/config"
	"github.com/tattoodirectory/catalog/internal/logging"
	"github.com/tattoodirectory/catalog/internal/ratelimit"
	orchestratordynamostore "github.com/tattoodirectory/catalog/orchestrator/dynamostore"
	"github.com/tattoodirectory/catalog/queue"
	"github.com/tattoodirectory/catalog/queue/redisqueue"
	"github.com/tattoodirectory/catalog/worker"
)

func main() {
	cfg := &config.Config{}
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "run the scrape worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(cmd); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	config.Bind(cmd, cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// jobDeadLetterRecorder logs the dead-lettered job and records it
// against the run's stats, so the orchestrator's success-rate check
// sees jobs that exhausted their attempt cap, not just ones that never
// finished.
type jobDeadLetterRecorder struct {
	log   *zap.Logger
	stats *orchestratordynamostore.Stats
}

func (r jobDeadLetterRecorder) RecordDeadLetter(ctx context.Context, job catalog.ScrapeJob, attempts int) {
	r.log.Warn("scrape job dead-lettered",
		zap.String("artist_id", job.ArtistID),
		zap.String("scrape_run_id", job.ScrapeRunID),
		zap.Int("attempts", attempts))
	r.stats.RecordDeadLettered(job.ScrapeRunID)
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
	stats := orchestratordynamostore.NewStats(dynamoClient, cfg.Catalog.TableName, log)

	q := redisqueue.New(redisClient, cfg.Queue.MaxAttempts, jobDeadLetterRecorder{log: log, stats: stats})

	fetcher := worker.NewFetcher(worker.FetchConfig{Timeout: cfg.Worker.FetchTimeout, MaxRedirects: 5})
	limiter := ratelimit.NewHostLimiter(rate.Limit(cfg.Worker.RateLimitPerSec), cfg.Worker.RateBurst)

	pool := worker.NewPool(worker.PoolConfig{
		Concurrency:       cfg.Worker.Concurrency,
		VisibilityTimeout: cfg.Worker.VisibilityTimeout,
		ReceiveBatchSize:  queue.MaxBatchSize,
		PollInterval:      cfg.Projector.PollInterval,
	}, q, func() *worker.Task {
		return &worker.Task{
			Fetcher:           fetcher,
			RateLimiter:       limiter,
			Catalog:           catalogStore,
			Queue:             q,
			Stats:             stats,
			VisibilityTimeout: cfg.Worker.VisibilityTimeout,
			Log:               log,
		}
	}, log)

	log.Info("worker pool starting", zap.Int("concurrency", cfg.Worker.Concurrency))
	return pool.Run(ctx)
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}
