// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package dynamostore is the production takedown.Store implementation,
// storing TakedownRequests in the same physical table as
// catalog/dynamostore under a dedicated TAKEDOWNS partition (sort key
// TAKEDOWN#<id>) so the API
// process (which creates requests) and the core process (which sweeps
// them) share durable state across processes. Follows the same AWS SDK
// v2 idiom as catalog/dynamostore (see DESIGN.md).
package dynamostore

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	uuid "github.com/satori/go.uuid"

	"github.com/tattoodirectory/catalog/catalog"
	"github.com/tattoodirectory/catalog/takedown"
)

const (
	attrPK = "PK"
	attrSK = "SK"
	pk     = "TAKEDOWNS"
)

func sk(id string) string { return "TAKEDOWN#" + id }

// Store is a takedown.Store backed by a single DynamoDB table.
type Store struct {
	client *dynamodb.Client
	table  string
}

// New returns a Store backed by client, operating on table.
func New(client *dynamodb.Client, table string) *Store {
	return &Store{client: client, table: table}
}

// Create implements takedown.Store.
func (s *Store) Create(ctx context.Context, req catalog.TakedownRequest) (catalog.TakedownRequest, error) {
	if req.ID == "" {
		req.ID = uuid.NewV4().String()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	req.Status = catalog.TakedownPending

	item := map[string]types.AttributeValue{
		attrPK:           &types.AttributeValueMemberS{Value: pk},
		attrSK:           &types.AttributeValueMemberS{Value: sk(req.ID)},
		"id":             &types.AttributeValueMemberS{Value: req.ID},
		"artist_id":      &types.AttributeValueMemberS{Value: req.ArtistID},
		"requester_email": &types.AttributeValueMemberS{Value: req.RequesterEmail},
		"reason":         &types.AttributeValueMemberS{Value: req.Reason},
		"status":         &types.AttributeValueMemberS{Value: string(req.Status)},
		"created_at":     &types.AttributeValueMemberS{Value: req.CreatedAt.Format(time.RFC3339Nano)},
		"idempotency_key": &types.AttributeValueMemberS{Value: req.IdempotencyKey},
	}

	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return catalog.TakedownRequest{}, takedown.Error.Wrap(err)
	}
	return req, nil
}

// ListPending implements takedown.Store.
func (s *Store) ListPending(ctx context.Context) ([]catalog.TakedownRequest, error) {
	keyCond := expression.Key(attrPK).Equal(expression.Value(pk))
	filter := expression.Name("status").Equal(expression.Value(string(catalog.TakedownPending)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, takedown.Error.Wrap(err)
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, takedown.Error.Wrap(err)
	}

	pending := make([]catalog.TakedownRequest, 0, len(out.Items))
	for _, item := range out.Items {
		pending = append(pending, decode(item))
	}
	return pending, nil
}

// MarkApplied implements takedown.Store.
func (s *Store) MarkApplied(ctx context.Context, id string) error {
	return s.setStatus(ctx, id, catalog.TakedownApplied, "")
}

// MarkRejected implements takedown.Store.
func (s *Store) MarkRejected(ctx context.Context, id, reason string) error {
	return s.setStatus(ctx, id, catalog.TakedownRejected, reason)
}

func (s *Store) setStatus(ctx context.Context, id string, status catalog.TakedownStatus, reason string) error {
	update := expression.Set(expression.Name("status"), expression.Value(string(status)))
	if reason != "" {
		update = update.Set(expression.Name("reason"), expression.Value(reason))
	}
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return takedown.Error.Wrap(err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: pk},
			attrSK: &types.AttributeValueMemberS{Value: sk(id)},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	return takedown.Error.Wrap(err)
}

func decode(item map[string]types.AttributeValue) catalog.TakedownRequest {
	req := catalog.TakedownRequest{
		ID:             asString(item["id"]),
		ArtistID:       asString(item["artist_id"]),
		RequesterEmail: asString(item["requester_email"]),
		Reason:         asString(item["reason"]),
		Status:         catalog.TakedownStatus(asString(item["status"])),
		IdempotencyKey: asString(item["idempotency_key"]),
	}
	if ts, err := time.Parse(time.RFC3339Nano, asString(item["created_at"])); err == nil {
		req.CreatedAt = ts
	}
	return req
}

func asString(v types.AttributeValue) string {
	if s, ok := v.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}
