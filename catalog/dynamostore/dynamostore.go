// Copyright (C) 2026 Tattoo Catalog Contributors
// See LICENSE for copying information.

// Package dynamostore is the production catalog.Store implementation:
// one physical DynamoDB table holding every entity, keyed per
// catalog.ArtistPK/StudioPK, with GSIs for the three secondary
// projections. No source in the retrieval pack implements a DynamoDB
// repository directly, so the item-building and conditional-expression
// idioms here follow the AWS SDK v2's own documented usage rather than a
// teacher file (see DESIGN.md); the Store-interface-plus-error-kind
// shape it is wired into follows the teacher's general DB-adapter
// pattern.
package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/sync/errgroup"

	"github.com/tattoodirectory/catalog/catalog"
)

const (
	attrPK = "PK"
	attrSK = "SK"
)

// Store is a catalog.Store backed by a single DynamoDB table.
type Store struct {
	client *dynamodb.Client
	table  string
	sink   catalog.ChangeEventSink
}

// New returns a Store backed by client, operating on table, emitting
// change events (if sink is non-nil) after every successful write.
func New(client *dynamodb.Client, table string, sink catalog.ChangeEventSink) *Store {
	return &Store{client: client, table: table, sink: sink}
}

// PutStudio implements catalog.Store.
func (s *Store) PutStudio(ctx context.Context, studio catalog.Studio) error {
	item := map[string]types.AttributeValue{
		attrPK:            &types.AttributeValueMemberS{Value: catalog.StudioPK(studio.ID)},
		attrSK:            &types.AttributeValueMemberS{Value: catalog.MetadataSK()},
		"id":              &types.AttributeValueMemberS{Value: studio.ID},
		"name":            &types.AttributeValueMemberS{Value: studio.Name},
		"website_url":     &types.AttributeValueMemberS{Value: studio.WebsiteURL},
		"city":            &types.AttributeValueMemberS{Value: studio.City},
		"geohash":         &types.AttributeValueMemberS{Value: studio.Geohash},
		"discovery_source": &types.AttributeValueMemberS{Value: studio.DiscoverySource},
		"opted_out":       &types.AttributeValueMemberBOOL{Value: studio.OptedOut},
		"created_at":      &types.AttributeValueMemberS{Value: studio.CreatedAt.Format(time.RFC3339Nano)},
	}

	cond := expression.Or(
		expression.AttributeNotExists(expression.Name(attrPK)),
		expression.Equal(expression.Name("opted_out"), expression.Value(false)),
	)
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return catalog.Error.Wrap(err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.table),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionFailure(err) {
		return catalog.Error.New("studio %s is opted out", studio.ID)
	}
	return catalog.Error.Wrap(err)
}

// PutArtist implements catalog.Store. The guard on scrapeRunId and the
// version increment are expressed as a single conditional update so that
// concurrent retries of the same message never double-apply: do not
// attempt to synthesize this with a read followed by a write.
func (s *Store) PutArtist(ctx context.Context, artist catalog.Artist, images []catalog.PortfolioImage, scrapeRunID string) error {
	if artist.StudioID != "" {
		if _, err := s.GetStudio(ctx, artist.StudioID); err != nil {
			return catalog.ErrStudioNotFound.New("artist %s references studio %s", artist.ID, artist.StudioID)
		}
	}

	update := expression.Set(expression.Name("name"), expression.Value(artist.Name)).
		Set(expression.Name("styles"), expression.Value(artist.Styles)).
		Set(expression.Name("contact_handle"), expression.Value(artist.ContactHandle)).
		Set(expression.Name("portfolio_url"), expression.Value(artist.PortfolioURL)).
		Set(expression.Name("studio_id"), expression.Value(artist.StudioID)).
		Set(expression.Name("geohash"), expression.Value(artist.Geohash)).
		Set(expression.Name("last_scrape_at"), expression.Value(time.Now().UTC().Format(time.RFC3339Nano))).
		Set(expression.Name("last_scrape_run_id"), expression.Value(scrapeRunID)).
		Set(expression.Name("version"), expression.Name("version").IfNotExists(expression.Value(int64(0))).Plus(expression.Value(int64(1))))

	cond := expression.Or(
		expression.AttributeNotExists(expression.Name(attrPK)),
		expression.NotEqual(expression.Name("last_scrape_run_id"), expression.Value(scrapeRunID)),
	)

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return catalog.Error.Wrap(err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: catalog.ArtistPK(artist.ID)},
			attrSK: &types.AttributeValueMemberS{Value: catalog.MetadataSK()},
		},
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailure(err) {
		return catalog.ErrAlreadyApplied.New("scrapeRunId %s already applied to artist %s", scrapeRunID, artist.ID)
	}
	if err != nil {
		return catalog.Error.Wrap(err)
	}

	if err := s.replaceImages(ctx, artist.ID, images); err != nil {
		return err
	}

	return s.emit(ctx, catalog.ChangeEvent{
		Kind:     catalog.ChangeModify,
		PK:       catalog.ArtistPK(artist.ID),
		ArtistID: artist.ID,
		Version:  asInt64(out.Attributes["version"]),
	})
}

func (s *Store) replaceImages(ctx context.Context, artistID string, images []catalog.PortfolioImage) error {
	writes := make([]types.WriteRequest, 0, len(images))
	for i, img := range images {
		writes = append(writes, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: map[string]types.AttributeValue{
				attrPK:         &types.AttributeValueMemberS{Value: catalog.ArtistPK(artistID)},
				attrSK:         &types.AttributeValueMemberS{Value: catalog.ImageSK(i)},
				"id":           &types.AttributeValueMemberS{Value: img.ID},
				"source_url":   &types.AttributeValueMemberS{Value: img.SourceURL},
				"thumbnail_url": &types.AttributeValueMemberS{Value: img.ThumbnailURL},
				"width":        &types.AttributeValueMemberN{Value: strconv.Itoa(img.Width)},
				"height":       &types.AttributeValueMemberN{Value: strconv.Itoa(img.Height)},
			}},
		})
	}
	for len(writes) > 0 {
		batch := writes
		if len(batch) > 25 {
			batch = writes[:25]
		}
		writes = writes[len(batch):]
		if _, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{s.table: batch},
		}); err != nil {
			return catalog.Error.Wrap(err)
		}
	}
	return nil
}

// MarkOptedOut implements catalog.Store.
func (s *Store) MarkOptedOut(ctx context.Context, artistID, reason string) error {
	update := expression.Set(expression.Name("opted_out"), expression.Value(true)).
		Set(expression.Name("opted_out_reason"), expression.Value(reason)).
		Set(expression.Name("version"), expression.Name("version").IfNotExists(expression.Value(int64(0))).Plus(expression.Value(int64(1))))
	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return catalog.Error.Wrap(err)
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: catalog.ArtistPK(artistID)},
			attrSK: &types.AttributeValueMemberS{Value: catalog.MetadataSK()},
		},
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return catalog.Error.Wrap(err)
	}

	return s.emit(ctx, catalog.ChangeEvent{
		Kind:     catalog.ChangeRemove,
		PK:       catalog.ArtistPK(artistID),
		ArtistID: artistID,
		Version:  asInt64(out.Attributes["version"]),
	})
}

// GetArtist implements catalog.Store.
func (s *Store) GetArtist(ctx context.Context, artistID string) (catalog.Artist, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: catalog.ArtistPK(artistID)},
			attrSK: &types.AttributeValueMemberS{Value: catalog.MetadataSK()},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return catalog.Artist{}, catalog.Error.Wrap(err)
	}
	if out.Item == nil {
		return catalog.Artist{}, catalog.ErrNotFound.New("artist %s", artistID)
	}
	return decodeArtist(out.Item), nil
}

// GetStudio implements catalog.Store.
func (s *Store) GetStudio(ctx context.Context, studioID string) (catalog.Studio, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: catalog.StudioPK(studioID)},
			attrSK: &types.AttributeValueMemberS{Value: catalog.MetadataSK()},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return catalog.Studio{}, catalog.Error.Wrap(err)
	}
	if out.Item == nil {
		return catalog.Studio{}, catalog.ErrNotFound.New("studio %s", studioID)
	}
	return decodeStudio(out.Item), nil
}

// ListArtistsByStyleAndGeo fans out a Query across catalog.StyleShards
// GSI partitions in parallel and merges results by artist id.
func (s *Store) ListArtistsByStyleAndGeo(ctx context.Context, style, geohashPrefix, cursor string, limit int) (catalog.Page, error) {
	shardKeys := catalog.ShardKeysForStyle(style)
	results := make([][]string, len(shardKeys))

	group, groupCtx := errgroup.WithContext(ctx)
	for i, pk := range shardKeys {
		i, pk := i, pk
		group.Go(func() error {
			ids, err := s.queryShard(groupCtx, pk, geohashPrefix)
			if err != nil {
				return err
			}
			results[i] = ids
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return catalog.Page{}, catalog.Error.Wrap(err)
	}

	var merged []string
	for _, ids := range results {
		merged = append(merged, ids...)
	}
	sort.Strings(merged)

	if limit <= 0 {
		limit = 20
	}
	start := 0
	for i, id := range merged {
		if id > cursor {
			start = i
			break
		}
		start = i + 1
	}
	end := start + limit
	if end > len(merged) {
		end = len(merged)
	}
	page := catalog.Page{ArtistIDs: append([]string(nil), merged[start:end]...)}
	if end < len(merged) {
		page.NextCursor = merged[end-1]
	}
	return page, nil
}

func (s *Store) queryShard(ctx context.Context, pk, geohashPrefix string) ([]string, error) {
	keyCond := expression.Key("gsi1pk").Equal(expression.Value(pk))
	if geohashPrefix != "" {
		keyCond = keyCond.And(expression.Key("gsi1sk").BeginsWith(fmt.Sprintf("GEOHASH#%s", geohashPrefix)))
	}
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, err
	}

	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.table),
		IndexName:                 aws.String("gsi1"),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(out.Items))
	for _, item := range out.Items {
		if v, ok := item["artist_id"].(*types.AttributeValueMemberS); ok {
			ids = append(ids, v.Value)
		}
	}
	return ids, nil
}

func decodeArtist(item map[string]types.AttributeValue) catalog.Artist {
	return catalog.Artist{
		ID:              asString(item["id"]),
		Name:            asString(item["name"]),
		ContactHandle:   asString(item["contact_handle"]),
		PortfolioURL:    asString(item["portfolio_url"]),
		StudioID:        asString(item["studio_id"]),
		Geohash:         asString(item["geohash"]),
		OptedOut:        asBool(item["opted_out"]),
		Version:         asInt64(item["version"]),
		LastScrapeRunID: asString(item["last_scrape_run_id"]),
	}
}

func decodeStudio(item map[string]types.AttributeValue) catalog.Studio {
	return catalog.Studio{
		ID:              asString(item["id"]),
		Name:            asString(item["name"]),
		WebsiteURL:      asString(item["website_url"]),
		City:            asString(item["city"]),
		Geohash:         asString(item["geohash"]),
		DiscoverySource: asString(item["discovery_source"]),
		OptedOut:        asBool(item["opted_out"]),
	}
}

func asString(v types.AttributeValue) string {
	if s, ok := v.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func asBool(v types.AttributeValue) bool {
	if b, ok := v.(*types.AttributeValueMemberBOOL); ok {
		return b.Value
	}
	return false
}

func asInt64(v types.AttributeValue) int64 {
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	parsed, _ := strconv.ParseInt(n.Value, 10, 64)
	return parsed
}

func (s *Store) emit(ctx context.Context, event catalog.ChangeEvent) error {
	if s.sink == nil {
		return nil
	}
	return s.sink.Emit(ctx, event)
}

func isConditionFailure(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}
