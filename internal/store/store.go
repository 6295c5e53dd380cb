// Package store provides keyed document access to user profiles, the green
// asset catalog, industry statistics, and per-user receipt ledgers. The core
// only needs point lookups by id, keyword-filtered listing, and append-only
// receipt writes; the backing schema is externally owned.
package store

import (
	"context"
	"fmt"

	"github.com/greenlens/greenlens/internal/common"
	"github.com/greenlens/greenlens/internal/model"
)

// Store is the ledger and reference-data access contract.
//
// Reference data (profiles, assets, industry stats) is read-only from the
// core's perspective. Receipt writes are all-or-nothing: a receipt and every
// ledger entry derived from it become visible together or not at all.
type Store interface {
	GetUserProfile(ctx context.Context, userID string) (*model.UserProfile, error)
	GetGreenAsset(ctx context.Context, assetID string) (*model.GreenAsset, error)
	SearchGreenAssets(ctx context.Context, query string, limit int) ([]model.GreenAsset, error)
	GetIndustryStats(ctx context.Context, industry string) (*model.IndustryStats, error)
	GetAttachment(ctx context.Context, userID, attachmentID string) (*model.Attachment, error)

	SaveReceipt(ctx context.Context, receipt *model.Receipt, carbon []model.CarbonItem, gita []model.GitaItem) error
	GetReceipt(ctx context.Context, userID, receiptID string) (*model.Receipt, error)
	ListCarbonItems(ctx context.Context, userID string) ([]model.CarbonItem, error)
	ListGitaItems(ctx context.Context, userID string) ([]model.GitaItem, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Config selects and configures a store driver.
type Config struct {
	Driver        string // "mongo", "sqlite" or "memory"
	MongoURI      string
	MongoDatabase string
	SQLitePath    string
}

// Open creates a store for the configured driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case "mongo":
		return NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported store driver %q", common.ErrInvalidConfig, cfg.Driver)
	}
}
