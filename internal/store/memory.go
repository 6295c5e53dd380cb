package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/greenlens/greenlens/internal/common"
	"github.com/greenlens/greenlens/internal/model"
)

// MemoryStore is an in-memory Store used by tests and the "memory" driver.
type MemoryStore struct {
	profiles    map[string]model.UserProfile
	assets      map[string]model.GreenAsset
	industries  map[string]model.IndustryStats
	attachments map[string]model.Attachment
	bundles     map[string]receiptBundle
	order       []string
	mu          sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:    make(map[string]model.UserProfile),
		assets:      make(map[string]model.GreenAsset),
		industries:  make(map[string]model.IndustryStats),
		attachments: make(map[string]model.Attachment),
		bundles:     make(map[string]receiptBundle),
	}
}

// SeedProfile adds reference data for tests.
func (s *MemoryStore) SeedProfile(p model.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

// SeedAsset adds a catalog asset for tests.
func (s *MemoryStore) SeedAsset(a model.GreenAsset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[a.ID] = a
}

// SeedIndustry adds sector reference data for tests.
func (s *MemoryStore) SeedIndustry(st model.IndustryStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.industries[st.Industry] = st
}

// SeedAttachment adds a stored document for tests.
func (s *MemoryStore) SeedAttachment(a model.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments[a.ID] = a
}

// GetUserProfile fetches a profile by user id.
func (s *MemoryStore) GetUserProfile(_ context.Context, userID string) (*model.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("user profile %s: %w", userID, common.ErrNotFound)
	}
	return &p, nil
}

// GetGreenAsset fetches a catalog asset by id.
func (s *MemoryStore) GetGreenAsset(_ context.Context, assetID string) (*model.GreenAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[assetID]
	if !ok {
		return nil, fmt.Errorf("green asset %s: %w", assetID, common.ErrNotFound)
	}
	return &a, nil
}

// SearchGreenAssets filters the catalog by keyword on name or manufacturer.
func (s *MemoryStore) SearchGreenAssets(_ context.Context, query string, limit int) ([]model.GreenAsset, error) {
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(query)
	matches := make([]model.GreenAsset, 0, limit)
	for _, a := range s.assets {
		if strings.Contains(strings.ToLower(a.Name), needle) ||
			strings.Contains(strings.ToLower(a.Manufacturer), needle) {
			matches = append(matches, a)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// GetIndustryStats fetches the reference intensity for an industry.
func (s *MemoryStore) GetIndustryStats(_ context.Context, industry string) (*model.IndustryStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.industries[industry]
	if !ok {
		return nil, fmt.Errorf("industry stats %s: %w", industry, common.ErrNotFound)
	}
	return &st, nil
}

// GetAttachment fetches a user's stored document by id.
func (s *MemoryStore) GetAttachment(_ context.Context, userID, attachmentID string) (*model.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attachments[attachmentID]
	if !ok || a.UserID != userID {
		return nil, fmt.Errorf("attachment %s: %w", attachmentID, common.ErrNotFound)
	}
	return &a, nil
}

// SaveReceipt stores a receipt bundle; duplicates are a no-op.
func (s *MemoryStore) SaveReceipt(_ context.Context, receipt *model.Receipt, carbon []model.CarbonItem, gita []model.GitaItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.bundles[receipt.ID]; ok {
		return nil
	}
	s.bundles[receipt.ID] = receiptBundle{
		ID:          receipt.ID,
		UserID:      receipt.UserID,
		Receipt:     *receipt,
		CarbonItems: append([]model.CarbonItem(nil), carbon...),
		GitaItems:   append([]model.GitaItem(nil), gita...),
	}
	s.order = append(s.order, receipt.ID)
	return nil
}

// GetReceipt fetches one of the user's receipts by id.
func (s *MemoryStore) GetReceipt(_ context.Context, userID, receiptID string) (*model.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bundles[receiptID]
	if !ok || b.UserID != userID {
		return nil, fmt.Errorf("receipt %s: %w", receiptID, common.ErrNotFound)
	}
	receipt := b.Receipt
	return &receipt, nil
}

// ListCarbonItems returns the user's carbon ledger in save order.
func (s *MemoryStore) ListCarbonItems(_ context.Context, userID string) ([]model.CarbonItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []model.CarbonItem
	for _, id := range s.order {
		if b := s.bundles[id]; b.UserID == userID {
			items = append(items, b.CarbonItems...)
		}
	}
	return items, nil
}

// ListGitaItems returns the user's tax-incentive ledger in save order.
func (s *MemoryStore) ListGitaItems(_ context.Context, userID string) ([]model.GitaItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []model.GitaItem
	for _, id := range s.order {
		if b := s.bundles[id]; b.UserID == userID {
			items = append(items, b.GitaItems...)
		}
	}
	return items, nil
}

// ReceiptCount reports how many receipts are stored; used by tests.
func (s *MemoryStore) ReceiptCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.bundles)
}

// Ping always succeeds.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close(_ context.Context) error { return nil }
