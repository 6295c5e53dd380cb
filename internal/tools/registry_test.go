package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenlens/greenlens/internal/common"
	"github.com/greenlens/greenlens/internal/llm"
	"github.com/greenlens/greenlens/internal/model"
	"github.com/greenlens/greenlens/internal/store"
)

func seededStore() *store.MemoryStore {
	st := store.NewMemoryStore()
	st.SeedProfile(model.UserProfile{
		ID:                   "u-1",
		Industry:             "Food & Beverage",
		AnnualRevenue:        2000000,
		TotalEmissions:       500,
		GitaTaxCreditBalance: 30000,
	})
	st.SeedProfile(model.UserProfile{
		ID:             "u-no-industry",
		AnnualRevenue:  100000,
		TotalEmissions: 12,
	})
	st.SeedAsset(model.GreenAsset{
		ID:                        "asset-1",
		Name:                      "SolarMax 450W Panel",
		Manufacturer:              "SunTech Sdn Bhd",
		CapexRM:                   15500,
		AnnualEnergyOffsetPercent: 0.3,
		GitaEligible:              true,
		LifetimeYears:             20,
		CertExpiry:                time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	for i := 0; i < 7; i++ {
		st.SeedAsset(model.GreenAsset{
			ID:           fmt.Sprintf("chiller-%d", i),
			Name:         fmt.Sprintf("EcoChill Chiller %d", i),
			Manufacturer: "CoolGreen Industries",
		})
	}
	return st
}

func defaultRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewDefaultRegistry(seededStore(), nil)
	require.NoError(t, err)
	return r
}

func call(name string, args string) llm.ToolCall {
	return llm.ToolCall{ID: "call-" + name, Name: name, Arguments: json.RawMessage(args)}
}

func TestDefaultRegistryCatalog(t *testing.T) {
	r := defaultRegistry(t)

	require.Equal(t, 4, r.Len())

	specs := r.Specs()
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
		assert.NotEmpty(t, s.Description)
		assert.True(t, json.Valid(s.InputSchema), "schema for %s must be valid JSON", s.Name)
	}
	assert.Equal(t, []string{
		NameSearchGreenDirectory,
		NameSimulateTaxImpact,
		NameSimulateInvestment,
		NameIndustryBenchmark,
	}, names)
}

func TestRegisterDuplicateName(t *testing.T) {
	r := NewRegistry(nil)
	tool := Tool{Name: "x", Handler: func(context.Context, json.RawMessage) (any, error) { return nil, nil }}

	require.NoError(t, r.Register(tool))
	assert.True(t, errors.Is(r.Register(tool), common.ErrDuplicateEntry))
}

func TestExecuteUnknownTool(t *testing.T) {
	r := defaultRegistry(t)

	res := r.Execute(context.Background(), call("teleport", `{}`))
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "unknown tool")
}

func TestSearchGreenDirectory(t *testing.T) {
	r := defaultRegistry(t)

	res := r.Execute(context.Background(), call(NameSearchGreenDirectory, `{"query":"chiller"}`))
	require.NoError(t, res.Err)

	matches, ok := res.Output.([]directoryMatch)
	require.True(t, ok)
	assert.Len(t, matches, 5, "directory search caps at 5 matches")
}

func TestSearchGreenDirectoryNoMatches(t *testing.T) {
	r := defaultRegistry(t)

	res := r.Execute(context.Background(), call(NameSearchGreenDirectory, `{"query":"submarine"}`))
	require.NoError(t, res.Err)

	matches, ok := res.Output.([]directoryMatch)
	require.True(t, ok)
	assert.Empty(t, matches)
}

func TestSimulateTaxImpactTool(t *testing.T) {
	r := defaultRegistry(t)

	res := r.Execute(context.Background(), call(NameSimulateTaxImpact, `{"userId":"u-1","proposedTaxRate":100}`))
	require.NoError(t, res.Err)

	payload, err := json.Marshal(res.Output)
	require.NoError(t, err)
	var out struct {
		Gross   float64 `json:"grossLiability"`
		Net     float64 `json:"netLiabilityAfterGITA"`
		Savings float64 `json:"savingsFromGITA"`
	}
	require.NoError(t, json.Unmarshal(payload, &out))

	assert.Equal(t, 50000.0, out.Gross)
	assert.Equal(t, 20000.0, out.Net)
	assert.Equal(t, 30000.0, out.Savings)
}

func TestSimulateTaxImpactUnknownUser(t *testing.T) {
	r := defaultRegistry(t)

	res := r.Execute(context.Background(), call(NameSimulateTaxImpact, `{"userId":"nobody","proposedTaxRate":100}`))
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, common.ErrNotFound))
}

func TestSimulateInvestmentTool(t *testing.T) {
	r := defaultRegistry(t)

	res := r.Execute(context.Background(), call(NameSimulateInvestment, `{"assetId":"asset-1","monthlyEnergyUsageKwh":5000}`))
	require.NoError(t, res.Err)

	payload, err := json.Marshal(res.Output)
	require.NoError(t, err)
	var out struct {
		Payback float64 `json:"paybackPeriodYears"`
		Annual  float64 `json:"annualSavingsRM"`
		Tax     float64 `json:"taxSavingsRM"`
		ROI     float64 `json:"lifetimeROI"`
	}
	require.NoError(t, json.Unmarshal(payload, &out))

	assert.Equal(t, 1.31, out.Payback)
	assert.Equal(t, 9000.0, out.Annual)
	assert.Equal(t, 3720.0, out.Tax)
	assert.Equal(t, 1428.0, out.ROI)
}

func TestSimulateInvestmentUnknownAsset(t *testing.T) {
	r := defaultRegistry(t)

	res := r.Execute(context.Background(), call(NameSimulateInvestment, `{"assetId":"ghost"}`))
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, common.ErrNotFound))
}

func TestIndustryBenchmarkTool(t *testing.T) {
	r := defaultRegistry(t)

	// No industry stats seeded, so the default average applies.
	res := r.Execute(context.Background(), call(NameIndustryBenchmark, `{"userId":"u-1"}`))
	require.NoError(t, res.Err)

	out, ok := res.Output.(benchmarkOutput)
	require.True(t, ok)
	assert.Equal(t, 0.25, out.UserIntensity)
	assert.Equal(t, 0.0002, out.IndustryAverage)
	assert.Equal(t, "Worse (Higher Carbon)", out.Performance)
}

func TestIndustryBenchmarkMissingIndustry(t *testing.T) {
	r := defaultRegistry(t)

	res := r.Execute(context.Background(), call(NameIndustryBenchmark, `{"userId":"u-no-industry"}`))
	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, common.ErrIncompleteData))
}

func TestExecuteAllFailureIndependence(t *testing.T) {
	r := defaultRegistry(t)

	calls := []llm.ToolCall{
		call(NameSimulateTaxImpact, `{"userId":"nobody","proposedTaxRate":50}`),
		call(NameSearchGreenDirectory, `{"query":"solar"}`),
		call(NameIndustryBenchmark, `{"userId":"u-1"}`),
	}

	results := r.ExecuteAll(context.Background(), calls)
	require.Len(t, results, 3)

	// Results stay in call order, and one failure blocks nothing else.
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, NameSearchGreenDirectory, results[1].Name)
}

func TestExecuteAllRunsConcurrently(t *testing.T) {
	r := NewRegistry(nil)

	var inFlight, peak atomic.Int32
	slow := Tool{
		Name: "slow",
		Handler: func(ctx context.Context, _ json.RawMessage) (any, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			inFlight.Add(-1)
			return "ok", nil
		},
	}
	require.NoError(t, r.Register(slow))

	calls := make([]llm.ToolCall, 4)
	for i := range calls {
		calls[i] = llm.ToolCall{ID: fmt.Sprintf("c%d", i), Name: "slow", Arguments: json.RawMessage(`{}`)}
	}

	results := r.ExecuteAll(context.Background(), calls)
	require.Len(t, results, 4)
	assert.Greater(t, peak.Load(), int32(1), "batch should overlap in time")
}
