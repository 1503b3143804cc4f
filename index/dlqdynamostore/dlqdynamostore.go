// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package dlqdynamostore is the production index.DeadLetterStore
// implementation, so the core process (which writes dead letters as
// the projector gives up retrying) and the API process (which serves
// GET /v1/dead-letters) observe the same durable records across
// processes, the same cross-process requirement changefeed.Feed solves
// for catalog.ChangeEventSink. Follows the same AWS SDK v2 idiom as
// catalog/dynamostore (see DESIGN.md).
package dlqdynamostore

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	uuid "github.com/satori/go.uuid"

	"github.com/tattoodirectory/catalog/index"
)

const (
	attrPK = "PK"
	attrSK = "SK"
	pk     = "DEADLETTERS"
)

func sk(id string) string { return "DEADLETTER#" + id }

// Store is an index.DeadLetterStore backed by a single DynamoDB table.
type Store struct {
	client *dynamodb.Client
	table  string
}

// New returns a Store backed by client, operating on table.
func New(client *dynamodb.Client, table string) *Store {
	return &Store{client: client, table: table}
}

// Put implements index.DeadLetterStore.
func (s *Store) Put(ctx context.Context, dl index.DeadLetter) error {
	event, err := json.Marshal(dl.Event)
	if err != nil {
		return err
	}

	item := map[string]types.AttributeValue{
		attrPK:     &types.AttributeValueMemberS{Value: pk},
		attrSK:     &types.AttributeValueMemberS{Value: sk(uuid.NewV4().String())},
		"event":    &types.AttributeValueMemberS{Value: string(event)},
		"reason":   &types.AttributeValueMemberS{Value: dl.Reason},
		"attempts": &types.AttributeValueMemberN{Value: itoa(dl.Attempts)},
		"failed_at": &types.AttributeValueMemberS{Value: dl.FailedAt.Format(time.RFC3339Nano)},
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	return err
}

// List implements index.DeadLetterStore.
func (s *Store) List(ctx context.Context) ([]index.DeadLetter, error) {
	keyCond := expression.Key(attrPK).Equal(expression.Value(pk))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, err
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, err
	}

	items := make([]index.DeadLetter, 0, len(out.Items))
	for _, item := range out.Items {
		items = append(items, decode(item))
	}
	return items, nil
}

func decode(item map[string]types.AttributeValue) index.DeadLetter {
	dl := index.DeadLetter{
		Reason:   asString(item["reason"]),
		Attempts: atoi(asString(item["attempts"])),
	}
	if ts, err := time.Parse(time.RFC3339Nano, asString(item["failed_at"])); err == nil {
		dl.FailedAt = ts
	}
	_ = json.Unmarshal([]byte(asString(item["event"])), &dl.Event)
	return dl
}

func asString(v types.AttributeValue) string {
	switch val := v.(type) {
	case *types.AttributeValueMemberS:
		return val.Value
	case *types.AttributeValueMemberN:
		return val.Value
	default:
		return ""
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
