package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenlens/greenlens/internal/common"
	"github.com/greenlens/greenlens/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "greenlens.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	_, err := NewSQLiteStore("")
	assert.True(t, errors.Is(err, common.ErrMissingConfig))
}

func TestSQLiteStoreReferenceData(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedProfile(ctx, model.UserProfile{ID: "u-1", Industry: "Logistics", TotalEmissions: 320}))
	require.NoError(t, s.SeedIndustry(ctx, model.IndustryStats{Industry: "Logistics", AverageIntensity: 0.0003}))
	require.NoError(t, s.SeedAttachment(ctx, model.Attachment{ID: "att-1", UserID: "u-1", Name: "invoice.pdf", Text: "RM 900"}))

	profile, err := s.GetUserProfile(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 320.0, profile.TotalEmissions)

	stats, err := s.GetIndustryStats(ctx, "Logistics")
	require.NoError(t, err)
	assert.Equal(t, 0.0003, stats.AverageIntensity)

	att, err := s.GetAttachment(ctx, "u-1", "att-1")
	require.NoError(t, err)
	assert.Equal(t, "RM 900", att.Text)

	_, err = s.GetAttachment(ctx, "intruder", "att-1")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	_, err = s.GetUserProfile(ctx, "nobody")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	// Seeding again updates in place.
	require.NoError(t, s.SeedProfile(ctx, model.UserProfile{ID: "u-1", Industry: "Logistics", TotalEmissions: 999}))
	profile, err = s.GetUserProfile(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, 999.0, profile.TotalEmissions)
}

func TestSQLiteStoreSearch(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedAsset(ctx, model.GreenAsset{ID: "a-1", Name: "Inverter Chiller B", CapexRM: 40000}))
	require.NoError(t, s.SeedAsset(ctx, model.GreenAsset{ID: "a-2", Name: "Inverter Chiller A"}))
	require.NoError(t, s.SeedAsset(ctx, model.GreenAsset{ID: "a-3", Name: "Solar Panel", Manufacturer: "ChillCo"}))
	require.NoError(t, s.SeedAsset(ctx, model.GreenAsset{ID: "a-4", Name: "Diesel Generator"}))

	results, err := s.SearchGreenAssets(ctx, "CHILL", 0)
	require.NoError(t, err)
	require.Len(t, results, 3, "matching is case-insensitive over name and manufacturer")
	assert.Equal(t, "Inverter Chiller A", results[0].Name)
	assert.Equal(t, 40000.0, results[1].CapexRM, "full document survives the roundtrip")

	capped, err := s.SearchGreenAssets(ctx, "chill", 2)
	require.NoError(t, err)
	assert.Len(t, capped, 2)
}

func TestSQLiteStoreSearchKeywordIsLiteral(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.SeedAsset(ctx, model.GreenAsset{ID: "a-1", Name: "EcoBoard 100% Recycled"}))
	require.NoError(t, s.SeedAsset(ctx, model.GreenAsset{ID: "a-2", Name: "EcoBoard 100x Recycled"}))
	require.NoError(t, s.SeedAsset(ctx, model.GreenAsset{ID: "a-3", Name: "Sun_Tracker Mount"}))
	require.NoError(t, s.SeedAsset(ctx, model.GreenAsset{ID: "a-4", Name: "SunXTracker Mount"}))

	results, err := s.SearchGreenAssets(ctx, "100%", 0)
	require.NoError(t, err)
	require.Len(t, results, 1, "%% in the keyword is not a wildcard")
	assert.Equal(t, "EcoBoard 100% Recycled", results[0].Name)

	results, err = s.SearchGreenAssets(ctx, "Sun_", 0)
	require.NoError(t, err)
	require.Len(t, results, 1, "_ in the keyword is not a wildcard")
	assert.Equal(t, "Sun_Tracker Mount", results[0].Name)
}

func TestSQLiteStoreReceiptRoundtrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	receipt := &model.Receipt{ID: "r-1", UserID: "u-1", Vendor: "TNB", Total: 2100.50, CreatedAt: base}
	carbon := []model.CarbonItem{
		{LineItem: model.LineItem{ID: "li-1", Name: "Electricity"}, Kind: model.KindCarbon, CO2eEmission: 2.5},
		{LineItem: model.LineItem{ID: "li-2", Name: "Diesel"}, Kind: model.KindCarbon, CO2eEmission: 1.1},
	}
	gita := []model.GitaItem{
		{LineItem: model.LineItem{ID: "li-1", Name: "Electricity"}, Kind: model.KindGita, GitaAllowance: 504.12},
	}

	require.NoError(t, s.SaveReceipt(ctx, receipt, carbon, gita))

	got, err := s.GetReceipt(ctx, "u-1", "r-1")
	require.NoError(t, err)
	assert.Equal(t, "TNB", got.Vendor)
	assert.Equal(t, 2100.50, got.Total)

	_, err = s.GetReceipt(ctx, "u-2", "r-1")
	assert.True(t, errors.Is(err, common.ErrNotFound))

	carbonItems, err := s.ListCarbonItems(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, carbonItems, 2)
	assert.Equal(t, "li-1", carbonItems[0].ID)
	assert.Equal(t, 2.5, carbonItems[0].CO2eEmission)

	gitaItems, err := s.ListGitaItems(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, gitaItems, 1)
	assert.Equal(t, 504.12, gitaItems[0].GitaAllowance)
}

func TestSQLiteStoreDuplicateReceiptIsNoOp(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	receipt := &model.Receipt{ID: "r-1", UserID: "u-1", CreatedAt: time.Now()}
	first := []model.CarbonItem{{LineItem: model.LineItem{ID: "li-1"}}}

	require.NoError(t, s.SaveReceipt(ctx, receipt, first, nil))
	require.NoError(t, s.SaveReceipt(ctx, receipt,
		[]model.CarbonItem{{LineItem: model.LineItem{ID: "li-other"}}}, nil))

	items, err := s.ListCarbonItems(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "li-1", items[0].ID)
}

func TestSQLiteStoreSaveIsAtomic(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	seeded := &model.Receipt{ID: "r-1", UserID: "u-1", CreatedAt: time.Now()}
	require.NoError(t, s.SaveReceipt(ctx, seeded,
		[]model.CarbonItem{{LineItem: model.LineItem{ID: "li-1"}}}, nil))

	// The second entry collides with an existing primary key, so the insert
	// fails partway through the bundle.
	bad := &model.Receipt{ID: "r-2", UserID: "u-1", CreatedAt: time.Now()}
	err := s.SaveReceipt(ctx, bad, []model.CarbonItem{
		{LineItem: model.LineItem{ID: "li-2"}},
		{LineItem: model.LineItem{ID: "li-1"}},
	}, nil)
	require.Error(t, err)

	_, err = s.GetReceipt(ctx, "u-1", "r-2")
	assert.True(t, errors.Is(err, common.ErrNotFound), "a failed bundle leaves no receipt behind")

	items, err := s.ListCarbonItems(ctx, "u-1")
	require.NoError(t, err)
	assert.Len(t, items, 1, "a failed bundle leaves no ledger entries behind")
}

func TestSQLiteStoreListOrder(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"r-1", "r-2"} {
		receipt := &model.Receipt{ID: id, UserID: "u-1", CreatedAt: base.Add(time.Duration(i) * time.Hour)}
		items := []model.CarbonItem{
			{LineItem: model.LineItem{ID: id + "-li-1"}},
			{LineItem: model.LineItem{ID: id + "-li-2"}},
		}
		require.NoError(t, s.SaveReceipt(ctx, receipt, items, nil))
	}

	items, err := s.ListCarbonItems(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, items, 4)
	assert.Equal(t, "r-1-li-1", items[0].ID)
	assert.Equal(t, "r-1-li-2", items[1].ID)
	assert.Equal(t, "r-2-li-1", items[2].ID)
	assert.Equal(t, "r-2-li-2", items[3].ID)
}

func TestOpenMemoryDriver(t *testing.T) {
	s, err := Open(context.Background(), Config{Driver: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = Open(context.Background(), Config{Driver: "oracle"})
	assert.Error(t, err)
}
