package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/greenlens/greenlens/internal/common"
	"github.com/greenlens/greenlens/internal/simulate"
	"github.com/greenlens/greenlens/internal/store"
)

// Tool names.
const (
	NameSearchGreenDirectory = "searchGreenDirectory"
	NameSimulateTaxImpact    = "simulateTaxImpact"
	NameSimulateInvestment   = "simulateInvestment"
	NameIndustryBenchmark    = "getIndustryBenchmark"
)

const searchResultLimit = 5

// NewDefaultRegistry builds the advisor's four-tool catalog over the store
// and the simulation engine.
func NewDefaultRegistry(st store.Store, logger *slog.Logger) (*Registry, error) {
	r := NewRegistry(logger)

	entries := []Tool{
		{
			Name: NameSearchGreenDirectory,
			Description: "Search the certified green technology directory by keyword. " +
				"Use when the user asks which green products, equipment or suppliers exist.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Keyword to match against product or manufacturer names"}
				},
				"required": ["query"]
			}`),
			Handler: searchGreenDirectory(st),
		},
		{
			Name: NameSimulateTaxImpact,
			Description: "Forecast the user's carbon tax liability under a proposed tax rate, " +
				"net of their accumulated GITA credit. Use for what-if questions about carbon tax cost.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"userId": {"type": "string"},
					"proposedTaxRate": {"type": "number", "description": "Proposed tax in RM per tonne CO2e"}
				},
				"required": ["userId", "proposedTaxRate"]
			}`),
			Handler: simulateTaxImpact(st),
		},
		{
			Name: NameSimulateInvestment,
			Description: "Project payback period and lifetime ROI for purchasing a green asset from " +
				"the directory. Use when the user asks whether an investment is worth it.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"assetId": {"type": "string"},
					"monthlyEnergyUsageKwh": {"type": "number", "description": "The business's monthly electricity usage in kWh; defaults to 5000"}
				},
				"required": ["assetId"]
			}`),
			Handler: simulateInvestment(st),
		},
		{
			Name: NameIndustryBenchmark,
			Description: "Compare the user's carbon intensity against their industry average. " +
				"Use when the user asks how they compare to peers or their sector.",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"userId": {"type": "string"}
				},
				"required": ["userId"]
			}`),
			Handler: industryBenchmark(st),
		},
	}

	for _, t := range entries {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// directoryMatch is one searchGreenDirectory result row.
type directoryMatch struct {
	CertExpiry   time.Time `json:"certExpiry"`
	Name         string    `json:"name"`
	Manufacturer string    `json:"manufacturer"`
}

func searchGreenDirectory(st store.Store) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var in struct {
			Query string `json:"query"`
		}
		if err := unmarshalArgs(args, &in); err != nil {
			return nil, err
		}

		assets, err := st.SearchGreenAssets(ctx, in.Query, searchResultLimit)
		if err != nil {
			return nil, err
		}

		matches := make([]directoryMatch, 0, len(assets))
		for _, a := range assets {
			matches = append(matches, directoryMatch{
				Name:         a.Name,
				Manufacturer: a.Manufacturer,
				CertExpiry:   a.CertExpiry,
			})
		}
		return matches, nil
	}
}

func simulateTaxImpact(st store.Store) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var in struct {
			UserID          string  `json:"userId"`
			ProposedTaxRate float64 `json:"proposedTaxRate"`
		}
		if err := unmarshalArgs(args, &in); err != nil {
			return nil, err
		}

		profile, err := st.GetUserProfile(ctx, in.UserID)
		if err != nil {
			return nil, err
		}

		return simulate.TaxImpact(simulate.TaxImpactInput{
			AnnualEmissions:   profile.TotalEmissions,
			ProposedTaxRate:   in.ProposedTaxRate,
			GitaCreditBalance: profile.GitaTaxCreditBalance,
		}), nil
	}
}

func simulateInvestment(st store.Store) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var in struct {
			AssetID               string  `json:"assetId"`
			MonthlyEnergyUsageKwh float64 `json:"monthlyEnergyUsageKwh"`
		}
		if err := unmarshalArgs(args, &in); err != nil {
			return nil, err
		}

		asset, err := st.GetGreenAsset(ctx, in.AssetID)
		if err != nil {
			return nil, err
		}

		return simulate.InvestmentROI(*asset, in.MonthlyEnergyUsageKwh), nil
	}
}

// benchmarkOutput is the getIndustryBenchmark result shape.
type benchmarkOutput struct {
	Performance     string  `json:"performance"`
	Message         string  `json:"message"`
	UserIntensity   float64 `json:"userIntensity"`
	IndustryAverage float64 `json:"industryAverage"`
}

func industryBenchmark(st store.Store) Handler {
	return func(ctx context.Context, args json.RawMessage) (any, error) {
		var in struct {
			UserID string `json:"userId"`
		}
		if err := unmarshalArgs(args, &in); err != nil {
			return nil, err
		}

		profile, err := st.GetUserProfile(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		if profile.Industry == "" {
			return nil, fmt.Errorf("profile %s has no industry: %w", in.UserID, common.ErrIncompleteData)
		}

		average := 0.0 // IndustryBenchmark substitutes the default
		stats, err := st.GetIndustryStats(ctx, profile.Industry)
		switch {
		case err == nil:
			average = stats.AverageIntensity
		case errors.Is(err, common.ErrNotFound):
			// No recorded stats for this industry; fall back to the default.
		default:
			return nil, err
		}

		result := simulate.IndustryBenchmark(profile.TotalEmissions, profile.AnnualRevenue, average)
		return benchmarkOutput{
			Performance:     result.Performance,
			Message:         result.Message,
			UserIntensity:   result.UserIntensity,
			IndustryAverage: result.IndustryAverage,
		}, nil
	}
}

func unmarshalArgs(args json.RawMessage, out any) error {
	if len(args) == 0 {
		return common.Validationf("tool arguments are required")
	}
	if err := json.Unmarshal(args, out); err != nil {
		return common.Validationf("invalid tool arguments: %v", err)
	}
	return nil
}
