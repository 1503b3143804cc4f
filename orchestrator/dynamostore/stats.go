// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

package dynamostore

import (
	"context"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

const skStats = "STATS"

// Stats is the production orchestrator.RunStats implementation, fed by
// the worker's worker.StatsRecorder calls: one item per run, under
// RUN#<scrapeRunId>/STATS in the same table as Store, incremented with
// DynamoDB's native ADD update expression rather than read-modify-write
// so concurrent workers racing on the same run never lose a count.
type Stats struct {
	client *dynamodb.Client
	table  string
	log    *zap.Logger
}

// NewStats returns a Stats backed by client, operating on table.
func NewStats(client *dynamodb.Client, table string, log *zap.Logger) *Stats {
	return &Stats{client: client, table: table, log: log}
}

// RecordScraped implements worker.StatsRecorder.
func (s *Stats) RecordScraped(scrapeRunID string) { s.add(scrapeRunID, "scraped") }

// RecordDeadLettered implements worker.StatsRecorder.
func (s *Stats) RecordDeadLettered(scrapeRunID string) { s.add(scrapeRunID, "dead_lettered") }

func (s *Stats) add(scrapeRunID, attr string) {
	update := expression.Add(expression.Name(attr), expression.Value(int64(1)))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		s.logger().Warn("failed to build stats update expression", zap.String("attr", attr), zap.Error(err))
		return
	}

	_, err = s.client.UpdateItem(context.Background(), &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: pk(scrapeRunID)},
			attrSK: &types.AttributeValueMemberS{Value: skStats},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		s.logger().Warn("failed to record run stat", zap.String("attr", attr), zap.Error(err))
	}
}

// Scraped implements orchestrator.RunStats.
func (s *Stats) Scraped(scrapeRunID string) int { return s.get(scrapeRunID, "scraped") }

// DeadLettered implements orchestrator.RunStats.
func (s *Stats) DeadLettered(scrapeRunID string) int { return s.get(scrapeRunID, "dead_lettered") }

func (s *Stats) get(scrapeRunID, attr string) int {
	out, err := s.client.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: pk(scrapeRunID)},
			attrSK: &types.AttributeValueMemberS{Value: skStats},
		},
	})
	if err != nil {
		s.logger().Warn("failed to read run stat", zap.String("attr", attr), zap.Error(err))
		return 0
	}
	if out.Item == nil {
		return 0
	}
	n, ok := out.Item[attr].(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	v, _ := strconv.Atoi(n.Value)
	return v
}

func (s *Stats) logger() *zap.Logger {
	if s.log != nil {
		return s.log
	}
	return zap.NewNop()
}
