// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Command core runs the long-lived, change-driven components of the
// catalog: the change-stream projector (C2) and the takedown sweep
// chore, sequenced together by internal/lifecycle so the process exits
// cleanly on signal.
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
	"github.com/olivere/elastic/v7"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/tattoodirectory/catalog/catalog/changefeed"
	"github.com/tattoodirectory/catalog/catalog/dynamostore"
	"github.com/tattoodirectory/catalog/config"
	"github.com/tattoodirectory/catalog/index"
	"github.com/tattoodirectory/catalog/index/dlqdynamostore"
	"github.com/tattoodirectory/catalog/internal/lifecycle"
	"github.com/tattoodirectory/catalog/internal/logging"
	"github.com/tattoodirectory/catalog/takedown"
	takedowndynamostore "github.com/tattoodirectory/catalog/takedown/dynamostore"
)

func main() {
	cfg := &config.Config{}
	cmd := &cobra.Command{
		Use:   "core",
		Short: "run the change-stream projector and takedown sweeper",
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

	esClient, err := elastic.NewClient(elastic.SetURL(cfg.Index.ElasticsearchURL), elastic.SetSniff(false))
	if err != nil {
		return err
	}
	indexer := index.NewElasticIndexer(esClient, cfg.Index.IndexName)
	deadLetters := dlqdynamostore.New(dynamoClient, cfg.Catalog.TableName)

	projector := &index.Projector{
		NumShards:    cfg.Projector.NumShards,
		PollInterval: cfg.Projector.PollInterval,
		BatchSize:    cfg.Projector.BatchSize,
		MaxAttempts:  cfg.Projector.MaxAttempts,
		Source:       feed,
		Catalog:      catalogStore,
		Indexer:      indexer,
		DeadLetters:  deadLetters,
		Log:          log,
	}

	takedownStore := takedowndynamostore.New(dynamoClient, cfg.Catalog.TableName)
	sweeper := takedown.NewSweeper(takedownStore, catalogStore, log, cfg.Takedown.SweepInterval)

	group := lifecycle.NewGroup(log)
	group.Add(lifecycle.Item{Name: "projector", Run: projector.Run})
	group.Add(lifecycle.Item{
		Name:  "takedown-sweeper",
		Run:   sweeper.Run,
		Close: func() error { sweeper.Close(); return nil },
	})

	eg, egctx := errgroup.WithContext(ctx)
	group.Run(egctx, eg)
	runErr := eg.Wait()

	if err := group.Close(); err != nil {
		log.Error("lifecycle close failed", zap.Error(err))
	}
	if runErr != nil && ctx.Err() == nil {
		return runErr
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
