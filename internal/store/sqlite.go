package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/greenlens/greenlens/internal/common"
	"github.com/greenlens/greenlens/internal/model"
)

// SQLiteStore implements Store on a local SQLite file. Entities are stored
// as JSON documents with only the keys needed for lookup and keyword search
// broken out into columns, keeping the document contract uniform with the
// mongo driver. Intended for local development and tests.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS user_profiles (
	id   TEXT PRIMARY KEY,
	body TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS green_assets (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT '',
	manufacturer TEXT NOT NULL DEFAULT '',
	body         TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS industry_stats (
	industry TEXT PRIMARY KEY,
	body     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS attachments (
	id      TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	body    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS receipts (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	body       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS carbon_items (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	receipt_id TEXT NOT NULL REFERENCES receipts(id),
	seq        INTEGER NOT NULL,
	body       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS gita_items (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	receipt_id TEXT NOT NULL REFERENCES receipts(id),
	seq        INTEGER NOT NULL,
	body       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_receipts_user ON receipts(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_carbon_user ON carbon_items(user_id);
CREATE INDEX IF NOT EXISTS idx_gita_user ON gita_items(user_id);
`

// NewSQLiteStore opens (and if needed bootstraps) a SQLite-backed store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", common.ErrMissingConfig)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SeedProfile upserts a user profile. Reference data is loaded out of band,
// by bootstrap tooling or tests.
func (s *SQLiteStore) SeedProfile(ctx context.Context, p model.UserProfile) error {
	return s.putDocument(ctx,
		"INSERT INTO user_profiles (id, body) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET body = excluded.body",
		"user profile", p.ID, p)
}

// SeedAsset upserts a catalog asset, keeping the search columns in sync.
func (s *SQLiteStore) SeedAsset(ctx context.Context, a model.GreenAsset) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode green asset %s: %w", a.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO green_assets (id, name, manufacturer, body) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, manufacturer = excluded.manufacturer, body = excluded.body`,
		a.ID, a.Name, a.Manufacturer, string(body))
	if err != nil {
		return fmt.Errorf("failed to upsert green asset %s: %w", a.ID, err)
	}
	return nil
}

// SeedIndustry upserts sector reference data.
func (s *SQLiteStore) SeedIndustry(ctx context.Context, st model.IndustryStats) error {
	return s.putDocument(ctx,
		"INSERT INTO industry_stats (industry, body) VALUES (?, ?) ON CONFLICT(industry) DO UPDATE SET body = excluded.body",
		"industry stats", st.Industry, st)
}

// SeedAttachment upserts a stored document.
func (s *SQLiteStore) SeedAttachment(ctx context.Context, a model.Attachment) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to encode attachment %s: %w", a.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO attachments (id, user_id, body) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET user_id = excluded.user_id, body = excluded.body`,
		a.ID, a.UserID, string(body))
	if err != nil {
		return fmt.Errorf("failed to upsert attachment %s: %w", a.ID, err)
	}
	return nil
}

func (s *SQLiteStore) putDocument(ctx context.Context, query, entity, id string, doc any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s %s: %w", entity, id, err)
	}
	if _, err := s.db.ExecContext(ctx, query, id, string(body)); err != nil {
		return fmt.Errorf("failed to upsert %s %s: %w", entity, id, err)
	}
	return nil
}

// GetUserProfile fetches a profile by user id.
func (s *SQLiteStore) GetUserProfile(ctx context.Context, userID string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := s.getDocument(ctx, "SELECT body FROM user_profiles WHERE id = ?", userID, "user profile", &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetGreenAsset fetches a catalog asset by id.
func (s *SQLiteStore) GetGreenAsset(ctx context.Context, assetID string) (*model.GreenAsset, error) {
	var asset model.GreenAsset
	if err := s.getDocument(ctx, "SELECT body FROM green_assets WHERE id = ?", assetID, "green asset", &asset); err != nil {
		return nil, err
	}
	return &asset, nil
}

// likeEscaper makes a keyword safe for a LIKE pattern, so % and _ in the
// query match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchGreenAssets returns up to limit assets whose name or manufacturer
// contains the keyword, case-insensitively. The keyword is literal, never a
// pattern.
func (s *SQLiteStore) SearchGreenAssets(ctx context.Context, query string, limit int) ([]model.GreenAsset, error) {
	if limit <= 0 {
		limit = 5
	}

	pattern := "%" + likeEscaper.Replace(query) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM green_assets
		 WHERE name LIKE ? ESCAPE '\' OR manufacturer LIKE ? ESCAPE '\'
		 ORDER BY name LIMIT ?`,
		pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search green assets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	assets := make([]model.GreenAsset, 0, limit)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan green asset: %w", err)
		}
		var asset model.GreenAsset
		if err := json.Unmarshal([]byte(body), &asset); err != nil {
			return nil, fmt.Errorf("failed to decode green asset: %w", err)
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// GetIndustryStats fetches the reference intensity for an industry.
func (s *SQLiteStore) GetIndustryStats(ctx context.Context, industry string) (*model.IndustryStats, error) {
	var stats model.IndustryStats
	if err := s.getDocument(ctx, "SELECT body FROM industry_stats WHERE industry = ?", industry, "industry stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetAttachment fetches a user's stored document by id.
func (s *SQLiteStore) GetAttachment(ctx context.Context, userID, attachmentID string) (*model.Attachment, error) {
	var att model.Attachment
	row := s.db.QueryRowContext(ctx, "SELECT body FROM attachments WHERE id = ? AND user_id = ?", attachmentID, userID)
	if err := scanDocument(row, "attachment", attachmentID, &att); err != nil {
		return nil, err
	}
	return &att, nil
}

// SaveReceipt persists a receipt and its derived entries in one transaction.
// Saving an already-stored receipt id is a no-op.
func (s *SQLiteStore) SaveReceipt(ctx context.Context, receipt *model.Receipt, carbon []model.CarbonItem, gita []model.GitaItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT COUNT(1) FROM receipts WHERE id = ?", receipt.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check receipt %s: %w", receipt.ID, err)
	}
	if exists > 0 {
		return nil
	}

	body, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("failed to encode receipt %s: %w", receipt.ID, err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO receipts (id, user_id, created_at, body) VALUES (?, ?, ?, ?)",
		receipt.ID, receipt.UserID, receipt.CreatedAt, string(body))
	if err != nil {
		return fmt.Errorf("failed to insert receipt %s: %w", receipt.ID, err)
	}

	for i, item := range carbon {
		if err := insertItem(ctx, tx, "carbon_items", item.ID, receipt, i, item); err != nil {
			return err
		}
	}
	for i, item := range gita {
		if err := insertItem(ctx, tx, "gita_items", item.ID+":gita", receipt, i, item); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit receipt %s: %w", receipt.ID, err)
	}
	return nil
}

func insertItem(ctx context.Context, tx *sql.Tx, table, id string, receipt *model.Receipt, seq int, item any) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode ledger entry %s: %w", id, err)
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO "+table+" (id, user_id, receipt_id, seq, body) VALUES (?, ?, ?, ?, ?)",
		id, receipt.UserID, receipt.ID, seq, string(body))
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry %s: %w", id, err)
	}
	return nil
}

// GetReceipt fetches one of the user's receipts by id.
func (s *SQLiteStore) GetReceipt(ctx context.Context, userID, receiptID string) (*model.Receipt, error) {
	var receipt model.Receipt
	row := s.db.QueryRowContext(ctx, "SELECT body FROM receipts WHERE id = ? AND user_id = ?", receiptID, userID)
	if err := scanDocument(row, "receipt", receiptID, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListCarbonItems returns the user's carbon ledger in receipt order.
func (s *SQLiteStore) ListCarbonItems(ctx context.Context, userID string) ([]model.CarbonItem, error) {
	return listItems[model.CarbonItem](ctx, s.db, "carbon_items", userID)
}

// ListGitaItems returns the user's tax-incentive ledger in receipt order.
func (s *SQLiteStore) ListGitaItems(ctx context.Context, userID string) ([]model.GitaItem, error) {
	return listItems[model.GitaItem](ctx, s.db, "gita_items", userID)
}

func listItems[T any](ctx context.Context, db *sql.DB, table, userID string) ([]T, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT i.body FROM `+table+` i
		 JOIN receipts r ON r.id = i.receipt_id
		 WHERE i.user_id = ?
		 ORDER BY r.created_at, i.seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var items []T
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", table, err)
		}
		var item T
		if err := json.Unmarshal([]byte(body), &item); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", table, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) getDocument(ctx context.Context, query, id, entity string, out any) error {
	row := s.db.QueryRowContext(ctx, query, id)
	return scanDocument(row, entity, id, out)
}

func scanDocument(row *sql.Row, entity, id string, out any) error {
	var body string
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s %s: %w", entity, id, common.ErrNotFound)
		}
		return fmt.Errorf("failed to fetch %s %s: %w", entity, id, err)
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", entity, id, err)
	}
	return nil
}

// Ping verifies the connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close(_ context.Context) error {
	return s.db.Close()
}
