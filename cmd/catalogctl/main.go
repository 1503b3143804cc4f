// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Command catalogctl is the operator admin CLI: inspecting dead
// letters and past scrape runs without going through the gated HTTP
// endpoints.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"github.com/tattoodirectory/catalog/index/dlqdynamostore"
	orchestratordynamostore "github.com/tattoodirectory/catalog/orchestrator/dynamostore"
)

var (
	tableName string
	region    string
)

func main() {
	root := &cobra.Command{
		Use:   "catalogctl",
		Short: "operator CLI for the tattoo catalog",
	}
	root.PersistentFlags().StringVar(&tableName, "table-name", "tattoo-catalog", "DynamoDB table name")
	root.PersistentFlags().StringVar(&region, "region", "us-east-1", "AWS region")

	deadLetters := &cobra.Command{Use: "dead-letters", Short: "inspect dead-lettered change events"}
	deadLetters.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "list dead-lettered change events",
		RunE:  runDeadLettersList,
	})

	runs := &cobra.Command{Use: "runs", Short: "inspect past scrape runs"}
	runs.AddCommand(&cobra.Command{
		Use:   "show <scrapeRunId>",
		Short: "show a scrape run's summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	})

	root.AddCommand(deadLetters, runs)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func dynamoClient(ctx context.Context) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return dynamodb.NewFromConfig(awsCfg), nil
}

func runDeadLettersList(cmd *cobra.Command, args []string) error {
	client, err := dynamoClient(cmd.Context())
	if err != nil {
		return err
	}
	store := dlqdynamostore.New(client, tableName)

	items, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(items)
}

func runShow(cmd *cobra.Command, args []string) error {
	client, err := dynamoClient(cmd.Context())
	if err != nil {
		return err
	}
	store := orchestratordynamostore.New(client, tableName)

	summary, found, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no such run: %s", args[0])
	}
	return printJSON(summary)
}

func printJSON(v interface{}) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(body))
	return nil
}
