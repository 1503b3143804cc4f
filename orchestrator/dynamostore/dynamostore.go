// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package dynamostore is the production orchestrator.RunStore
// implementation named in RunSummary's own doc comment: one item per
// run under RUN#<scrapeRunId> in the catalog's single table, so GET
// /v1/runs/{scrapeRunId} can serve a summary after the orchestrator
// process that produced it has exited. Follows the same AWS SDK v2
// idiom as catalog/dynamostore (see DESIGN.md).
package dynamostore

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tattoodirectory/catalog/orchestrator"
)

const (
	attrPK = "PK"
	attrSK = "SK"
	skRun  = "METADATA"
)

func pk(scrapeRunID string) string { return "RUN#" + scrapeRunID }

// Store is an orchestrator.RunStore backed by a single DynamoDB table.
type Store struct {
	client *dynamodb.Client
	table  string
}

// New returns a Store backed by client, operating on table.
func New(client *dynamodb.Client, table string) *Store {
	return &Store{client: client, table: table}
}

// Save implements orchestrator.RunStore.
func (s *Store) Save(ctx context.Context, summary orchestrator.RunSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item: map[string]types.AttributeValue{
			attrPK:    &types.AttributeValueMemberS{Value: pk(summary.ScrapeRunID)},
			attrSK:    &types.AttributeValueMemberS{Value: skRun},
			"summary": &types.AttributeValueMemberS{Value: string(body)},
		},
	})
	return err
}

// Get implements orchestrator.RunStore.
func (s *Store) Get(ctx context.Context, scrapeRunID string) (orchestrator.RunSummary, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: pk(scrapeRunID)},
			attrSK: &types.AttributeValueMemberS{Value: skRun},
		},
	})
	if err != nil {
		return orchestrator.RunSummary{}, false, err
	}
	if out.Item == nil {
		return orchestrator.RunSummary{}, false, nil
	}

	raw, ok := out.Item["summary"].(*types.AttributeValueMemberS)
	if !ok {
		return orchestrator.RunSummary{}, false, nil
	}
	var summary orchestrator.RunSummary
	if err := json.Unmarshal([]byte(raw.Value), &summary); err != nil {
		return orchestrator.RunSummary{}, false, err
	}
	return summary, true, nil
}
