package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/greenlens/greenlens/internal/common"
	"github.com/greenlens/greenlens/internal/model"
)

// Collection names.
const (
	colProfiles    = "user_profiles"
	colAssets      = "green_assets"
	colIndustry    = "industry_stats"
	colReceipts    = "receipts"
	colAttachments = "attachments"
)

// MongoStore implements Store on a MongoDB database.
//
// A receipt and its derived ledger entries are persisted as a single bundle
// document, so the all-or-nothing write guarantee holds with one InsertOne
// and no multi-document transaction.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// receiptBundle is the stored shape of one processed receipt.
type receiptBundle struct {
	Receipt     model.Receipt      `bson:"receipt"`
	ID          string             `bson:"_id"`
	UserID      string             `bson:"userId"`
	CarbonItems []model.CarbonItem `bson:"carbonItems"`
	GitaItems   []model.GitaItem   `bson:"gitaItems"`
}

// NewMongoStore connects to MongoDB and returns a Store backed by it.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: mongo URI is required", common.ErrMissingConfig)
	}
	if database == "" {
		database = "greenlens"
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	s := &MongoStore{
		client: client,
		db:     client.Database(database),
	}

	// Connection is lazy; probe it with retry so startup fails fast on a
	// genuinely unreachable store.
	err = common.WithRetry(ctx, func() error {
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		defer pingCancel()
		return client.Ping(pingCtx, readpref.Primary())
	}, common.RetryOptions{MaxAttempts: 3, InitialDelay: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return s, nil
}

// GetUserProfile fetches a profile by user id.
func (s *MongoStore) GetUserProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	var profile model.UserProfile
	err := s.db.Collection(colProfiles).FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if err != nil {
		return nil, mapMongoErr(err, "user profile", userID)
	}
	return &profile, nil
}

// GetGreenAsset fetches a catalog asset by id.
func (s *MongoStore) GetGreenAsset(ctx context.Context, assetID string) (*model.GreenAsset, error) {
	var asset model.GreenAsset
	err := s.db.Collection(colAssets).FindOne(ctx, bson.M{"_id": assetID}).Decode(&asset)
	if err != nil {
		return nil, mapMongoErr(err, "green asset", assetID)
	}
	return &asset, nil
}

// SearchGreenAssets returns up to limit catalog assets whose name or
// manufacturer matches the keyword, case-insensitively. No matches is an
// empty slice, not an error.
func (s *MongoStore) SearchGreenAssets(ctx context.Context, query string, limit int) ([]model.GreenAsset, error) {
	if limit <= 0 {
		limit = 5
	}

	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	filter := bson.M{"$or": bson.A{
		bson.M{"name": pattern},
		bson.M{"manufacturer": pattern},
	}}

	cursor, err := s.db.Collection(colAssets).Find(ctx, filter, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("failed to search green assets: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	assets := make([]model.GreenAsset, 0, limit)
	if err := cursor.All(ctx, &assets); err != nil {
		return nil, fmt.Errorf("failed to decode green assets: %w", err)
	}
	return assets, nil
}

// GetIndustryStats fetches the reference intensity for an industry.
func (s *MongoStore) GetIndustryStats(ctx context.Context, industry string) (*model.IndustryStats, error) {
	var stats model.IndustryStats
	err := s.db.Collection(colIndustry).FindOne(ctx, bson.M{"_id": industry}).Decode(&stats)
	if err != nil {
		return nil, mapMongoErr(err, "industry stats", industry)
	}
	return &stats, nil
}

// GetAttachment fetches a user's stored document by id.
func (s *MongoStore) GetAttachment(ctx context.Context, userID, attachmentID string) (*model.Attachment, error) {
	var att model.Attachment
	err := s.db.Collection(colAttachments).FindOne(ctx, bson.M{"_id": attachmentID, "userId": userID}).Decode(&att)
	if err != nil {
		return nil, mapMongoErr(err, "attachment", attachmentID)
	}
	return &att, nil
}

// SaveReceipt persists a receipt bundle. Saving an already-stored receipt id
// is a no-op so ledger entries are never re-derived.
func (s *MongoStore) SaveReceipt(ctx context.Context, receipt *model.Receipt, carbon []model.CarbonItem, gita []model.GitaItem) error {
	bundle := receiptBundle{
		ID:          receipt.ID,
		UserID:      receipt.UserID,
		Receipt:     *receipt,
		CarbonItems: carbon,
		GitaItems:   gita,
	}

	_, err := s.db.Collection(colReceipts).InsertOne(ctx, bundle)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("failed to save receipt %s: %w", receipt.ID, err)
	}
	return nil
}

// GetReceipt fetches one of the user's receipts by id.
func (s *MongoStore) GetReceipt(ctx context.Context, userID, receiptID string) (*model.Receipt, error) {
	var bundle receiptBundle
	err := s.db.Collection(colReceipts).FindOne(ctx, bson.M{"_id": receiptID, "userId": userID}).Decode(&bundle)
	if err != nil {
		return nil, mapMongoErr(err, "receipt", receiptID)
	}
	return &bundle.Receipt, nil
}

// ListCarbonItems returns the user's carbon ledger in receipt order.
func (s *MongoStore) ListCarbonItems(ctx context.Context, userID string) ([]model.CarbonItem, error) {
	bundles, err := s.listBundles(ctx, userID)
	if err != nil {
		return nil, err
	}

	var items []model.CarbonItem
	for _, b := range bundles {
		items = append(items, b.CarbonItems...)
	}
	return items, nil
}

// ListGitaItems returns the user's tax-incentive ledger in receipt order.
func (s *MongoStore) ListGitaItems(ctx context.Context, userID string) ([]model.GitaItem, error) {
	bundles, err := s.listBundles(ctx, userID)
	if err != nil {
		return nil, err
	}

	var items []model.GitaItem
	for _, b := range bundles {
		items = append(items, b.GitaItems...)
	}
	return items, nil
}

func (s *MongoStore) listBundles(ctx context.Context, userID string) ([]receiptBundle, error) {
	cursor, err := s.db.Collection(colReceipts).Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "receipt.createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var bundles []receiptBundle
	if err := cursor.All(ctx, &bundles); err != nil {
		return nil, fmt.Errorf("failed to decode receipts: %w", err)
	}
	return bundles, nil
}

// Ping verifies the connection.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func mapMongoErr(err error, entity, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", entity, id, common.ErrNotFound)
	}
	return fmt.Errorf("failed to fetch %s %s: %w", entity, id, err)
}
