package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenlens/greenlens/internal/common"
	"github.com/greenlens/greenlens/internal/model"
)

func TestMemoryStoreLookups(t *testing.T) {
	s := NewMemoryStore()
	s.SeedProfile(model.UserProfile{ID: "u-1", Industry: "Retail"})
	s.SeedAsset(model.GreenAsset{ID: "a-1", Name: "Solar Array", Manufacturer: "SunTech"})
	s.SeedIndustry(model.IndustryStats{Industry: "Retail", AverageIntensity: 0.0001})
	s.SeedAttachment(model.Attachment{ID: "att-1", UserID: "u-1", Name: "bill.pdf"})

	ctx := context.Background()

	profile, err := s.GetUserProfile(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Retail", profile.Industry)

	asset, err := s.GetGreenAsset(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, "Solar Array", asset.Name)

	stats, err := s.GetIndustryStats(ctx, "Retail")
	require.NoError(t, err)
	assert.Equal(t, 0.0001, stats.AverageIntensity)

	att, err := s.GetAttachment(ctx, "u-1", "att-1")
	require.NoError(t, err)
	assert.Equal(t, "bill.pdf", att.Name)

	_, err = s.GetUserProfile(ctx, "nobody")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	// Attachments are scoped to their owner.
	_, err = s.GetAttachment(ctx, "u-2", "att-1")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestMemoryStoreSearch(t *testing.T) {
	s := NewMemoryStore()
	s.SeedAsset(model.GreenAsset{ID: "a-1", Name: "Inverter Chiller B"})
	s.SeedAsset(model.GreenAsset{ID: "a-2", Name: "Inverter Chiller A"})
	s.SeedAsset(model.GreenAsset{ID: "a-3", Name: "Solar Panel", Manufacturer: "ChillCo"})
	s.SeedAsset(model.GreenAsset{ID: "a-4", Name: "Diesel Generator"})

	results, err := s.SearchGreenAssets(context.Background(), "chill", 0)
	require.NoError(t, err)

	// Matches on name or manufacturer, sorted by name.
	require.Len(t, results, 3)
	assert.Equal(t, "Inverter Chiller A", results[0].Name)
	assert.Equal(t, "Inverter Chiller B", results[1].Name)
	assert.Equal(t, "Solar Panel", results[2].Name)

	capped, err := s.SearchGreenAssets(context.Background(), "chill", 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestMemoryStoreReceiptBundle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	receipt := &model.Receipt{ID: "r-1", UserID: "u-1", Vendor: "TNB", CreatedAt: time.Now()}
	carbon := []model.CarbonItem{{LineItem: model.LineItem{ID: "li-1"}, Kind: model.KindCarbon}}
	gita := []model.GitaItem{{LineItem: model.LineItem{ID: "li-1"}, Kind: model.KindGita}}

	require.NoError(t, s.SaveReceipt(ctx, receipt, carbon, gita))
	assert.Equal(t, 1, s.ReceiptCount())

	got, err := s.GetReceipt(ctx, "u-1", "r-1")
	require.NoError(t, err)
	assert.Equal(t, "TNB", got.Vendor)

	// Other users cannot see the receipt.
	_, err = s.GetReceipt(ctx, "u-2", "r-1")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	carbonItems, err := s.ListCarbonItems(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, carbonItems, 1)
	assert.Equal(t, "li-1", carbonItems[0].ID)

	gitaItems, err := s.ListGitaItems(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, gitaItems, 1)
}

func TestMemoryStoreDuplicateReceiptIsNoOp(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	receipt := &model.Receipt{ID: "r-1", UserID: "u-1", Vendor: "TNB"}
	first := []model.CarbonItem{{LineItem: model.LineItem{ID: "li-1"}}}

	require.NoError(t, s.SaveReceipt(ctx, receipt, first, nil))
	require.NoError(t, s.SaveReceipt(ctx, receipt, []model.CarbonItem{{LineItem: model.LineItem{ID: "li-other"}}}, nil))

	assert.Equal(t, 1, s.ReceiptCount())
	items, err := s.ListCarbonItems(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "li-1", items[0].ID, "the original bundle wins")
}

func TestMemoryStoreListOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for _, id := range []string{"r-1", "r-2", "r-3"} {
		receipt := &model.Receipt{ID: id, UserID: "u-1"}
		items := []model.CarbonItem{{LineItem: model.LineItem{ID: id + "-li"}}}
		require.NoError(t, s.SaveReceipt(ctx, receipt, items, nil))
	}

	items, err := s.ListCarbonItems(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "r-1-li", items[0].ID)
	assert.Equal(t, "r-3-li", items[2].ID)
}
