// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package dynamostore is the production idempotency.Store
// implementation, reusing the catalog's own single table under a
// dedicated IDEMPOTENCY partition rather than a bespoke store, per
// idempotency's own doc comment. Follows the same AWS SDK v2 idiom as
// catalog/dynamostore (see DESIGN.md).
package dynamostore

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/tattoodirectory/catalog/api/idempotency"
)

const (
	attrPK = "PK"
	attrSK = "SK"
	pk     = "IDEMPOTENCY"
)

func sk(key string) string { return "KEY#" + key }

// Store is an idempotency.Store backed by a single DynamoDB table.
type Store struct {
	client *dynamodb.Client
	table  string
}

// New returns a Store backed by client, operating on table.
func New(client *dynamodb.Client, table string) *Store {
	return &Store{client: client, table: table}
}

// PutIfAbsent implements idempotency.Store.
func (s *Store) PutIfAbsent(ctx context.Context, record idempotency.Record) (idempotency.Record, bool, error) {
	item := map[string]types.AttributeValue{
		attrPK:          &types.AttributeValueMemberS{Value: pk},
		attrSK:          &types.AttributeValueMemberS{Value: sk(record.Key)},
		"key":           &types.AttributeValueMemberS{Value: record.Key},
		"payload_hash":  &types.AttributeValueMemberS{Value: record.PayloadHash},
		"status_code":   &types.AttributeValueMemberN{Value: itoa(record.StatusCode)},
		"body":          &types.AttributeValueMemberS{Value: base64.StdEncoding.EncodeToString(record.Body)},
	}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(" + attrPK + ")"),
	})
	if isConditionFailure(err) {
		existing, _, getErr := s.Get(ctx, record.Key)
		if getErr != nil {
			return idempotency.Record{}, false, getErr
		}
		return existing, false, nil
	}
	if err != nil {
		return idempotency.Record{}, false, idempotency.Error.Wrap(err)
	}
	return record, true, nil
}

// Get implements idempotency.Store.
func (s *Store) Get(ctx context.Context, key string) (idempotency.Record, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: pk},
			attrSK: &types.AttributeValueMemberS{Value: sk(key)},
		},
	})
	if err != nil {
		return idempotency.Record{}, false, idempotency.Error.Wrap(err)
	}
	if out.Item == nil {
		return idempotency.Record{}, false, nil
	}
	return decode(out.Item), true, nil
}

// Complete fills in the final status code and body for an admitted
// key, matching the unexported completion interface
// api.TakedownsHandler type-asserts for (mirroring
// idempotency.MemStore's own Complete signature) so a request's final
// result survives a process restart, not just an in-memory replay.
func (s *Store) Complete(key string, statusCode int, body []byte) {
	_, _ = s.client.UpdateItem(context.Background(), &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: pk},
			attrSK: &types.AttributeValueMemberS{Value: sk(key)},
		},
		UpdateExpression: aws.String("SET status_code = :sc, body = :b"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sc": &types.AttributeValueMemberN{Value: itoa(statusCode)},
			":b":  &types.AttributeValueMemberS{Value: base64.StdEncoding.EncodeToString(body)},
		},
	})
}

func decode(item map[string]types.AttributeValue) idempotency.Record {
	record := idempotency.Record{
		Key:         asString(item["key"]),
		PayloadHash: asString(item["payload_hash"]),
	}
	if n, ok := item["status_code"].(*types.AttributeValueMemberN); ok {
		record.StatusCode = atoi(n.Value)
	}
	if body, err := base64.StdEncoding.DecodeString(asString(item["body"])); err == nil {
		record.Body = body
	}
	return record
}

func asString(v types.AttributeValue) string {
	if s, ok := v.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func isConditionFailure(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

func itoa(n int) string { return strconv.Itoa(n) }

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
