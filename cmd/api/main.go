// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Command api runs the query API front door (C6): artist search,
// takedown intake, and the operator-only dead-letter/run-history
// endpoints.
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

	"github.com/tattoodirectory/catalog/api"
	"github.com/tattoodirectory/catalog/api/circuitbreaker"
	idempotencydynamostore "github.com/tattoodirectory/catalog/api/idempotency/dynamostore"
	"github.com/tattoodirectory/catalog/catalog/changefeed"
	"github.com/tattoodirectory/catalog/catalog/dynamostore"
	"github.com/tattoodirectory/catalog/config"
	"github.com/tattoodirectory/catalog/index"
	"github.com/tattoodirectory/catalog/index/dlqdynamostore"
	"github.com/tattoodirectory/catalog/internal/logging"
	orchestratordynamostore "github.com/tattoodirectory/catalog/orchestrator/dynamostore"
	"github.com/tattoodirectory/catalog/takedown"
	takedowndynamostore "github.com/tattoodirectory/catalog/takedown/dynamostore"
)

func main() {
	cfg := &config.Config{}
	cmd := &cobra.Command{
		Use:   "api",
		Short: "run the query API",
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
	searcher := index.NewElasticSearcher(esClient, cfg.Index.IndexName)

	takedownStore := takedowndynamostore.New(dynamoClient, cfg.Catalog.TableName)
	sweeper := takedown.NewSweeper(takedownStore, catalogStore, log, cfg.Takedown.SweepInterval)
	go func() { _ = sweeper.Run(ctx) }()
	defer sweeper.Close()

	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.API.BreakerThreshold,
		ResetTimeout:     cfg.API.BreakerResetTimeout,
	})

	handlers := api.Handlers{
		Artists: &api.ArtistsHandler{
			Catalog:      catalogStore,
			Searcher:     searcher,
			Geocoder:     api.NewStaticGeocoder(),
			Breaker:      breaker,
			Log:          log,
			DefaultLimit: cfg.API.DefaultLimit,
		},
		Takedowns: &api.TakedownsHandler{
			Store:       takedownStore,
			Idempotency: idempotencydynamostore.New(dynamoClient, cfg.Catalog.TableName),
			Sweeper:     sweeper,
			Log:         log,
		},
		DeadLetters: &api.DeadLettersHandler{
			Store: dlqdynamostore.New(dynamoClient, cfg.Catalog.TableName),
			Log:   log,
		},
		Runs: &api.RunsHandler{
			Store: orchestratordynamostore.New(dynamoClient, cfg.Catalog.TableName),
			Log:   log,
		},
		OperatorAPIKey: cfg.API.OperatorAPIKey,
	}

	router := api.NewRouter(handlers)
	server, err := api.New(log, api.Config{
		Name:            "api",
		Address:         cfg.API.Address,
		ShutdownTimeout: cfg.API.ShutdownTimeout,
	}, router)
	if err != nil {
		return err
	}

	log.Info("api server listening", zap.String("address", server.Addr()))
	return server.Run(ctx)
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.InfoLevel
	}
	return l
}
