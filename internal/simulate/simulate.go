// Package simulate implements the deterministic financial simulations the
// advisor exposes as tools: tax forecast, green-investment ROI, and the
// industry carbon benchmark. All functions are pure and perform no I/O;
// missing inputs fall back to explicit defaults instead of raising.
package simulate

import (
	"fmt"
	"math"

	"github.com/greenlens/greenlens/internal/model"
)

// Simulation defaults and fixed rates.
const (
	DefaultAnnualEmissions   = 1000.0 // tonnes CO2e
	DefaultMonthlyEnergyKwh  = 5000.0
	DefaultEnergyOffsetPct   = 0.3
	DefaultLifetimeYears     = 20.0
	DefaultAverageIntensity  = 0.0002 // kg CO2e per RM revenue
	ElectricityTariffRMPerKw = 0.5    // RM per kWh
	GitaCapexAllowanceRate   = 0.24
	// PaybackSentinelYears means the asset does not pay back within a
	// practical horizon.
	PaybackSentinelYears = 99.0
)

// Benchmark performance labels.
const (
	PerformanceBetter = "Better (Lower Carbon)"
	PerformanceWorse  = "Worse (Higher Carbon)"
)

// TaxImpactInput holds the inputs for a carbon tax forecast. A zero
// AnnualEmissions falls back to DefaultAnnualEmissions; a zero credit
// balance is simply no credit.
type TaxImpactInput struct {
	AnnualEmissions   float64
	ProposedTaxRate   float64
	GitaCreditBalance float64
}

// TaxImpactResult is the forecast liability breakdown in RM.
type TaxImpactResult struct {
	GrossLiability  float64 `json:"grossLiability"`
	NetLiability    float64 `json:"netLiabilityAfterGITA"`
	SavingsFromGITA float64 `json:"savingsFromGITA"`
}

// TaxImpact forecasts the statutory carbon tax liability under a proposed
// rate, after offsetting the accumulated GITA credit balance.
// Invariant: NetLiability + SavingsFromGITA == GrossLiability, and
// NetLiability >= 0.
func TaxImpact(in TaxImpactInput) TaxImpactResult {
	emissions := in.AnnualEmissions
	if emissions == 0 {
		emissions = DefaultAnnualEmissions
	}

	gross := emissions * in.ProposedTaxRate
	net := math.Max(0, gross-in.GitaCreditBalance)
	savings := gross - net

	return TaxImpactResult{
		GrossLiability:  gross,
		NetLiability:    net,
		SavingsFromGITA: savings,
	}
}

// InvestmentResult is the ROI projection for one green asset.
type InvestmentResult struct {
	PaybackPeriodYears float64 `json:"paybackPeriodYears"`
	AnnualSavingsRM    float64 `json:"annualSavingsRM"`
	TaxSavingsRM       float64 `json:"taxSavingsRM"`
	LifetimeROI        float64 `json:"lifetimeROI"`
}

// InvestmentROI projects payback and lifetime return for purchasing the
// given asset at the business's energy usage. A non-positive
// monthlyEnergyUsageKwh falls back to DefaultMonthlyEnergyKwh; asset fields
// left at zero take their documented defaults.
func InvestmentROI(asset model.GreenAsset, monthlyEnergyUsageKwh float64) InvestmentResult {
	if monthlyEnergyUsageKwh <= 0 {
		monthlyEnergyUsageKwh = DefaultMonthlyEnergyKwh
	}

	offsetPct := asset.AnnualEnergyOffsetPercent
	if offsetPct == 0 {
		offsetPct = DefaultEnergyOffsetPct
	}

	lifetime := asset.LifetimeYears
	if lifetime == 0 {
		lifetime = DefaultLifetimeYears
	}

	annualEnergyKwh := monthlyEnergyUsageKwh * 12
	energyOffsetKwh := annualEnergyKwh * offsetPct
	annualSavings := energyOffsetKwh*ElectricityTariffRMPerKw - asset.AnnualMaintenanceRM

	var taxSavings float64
	if asset.GitaEligible {
		taxSavings = asset.CapexRM * GitaCapexAllowanceRate
	}

	effectiveCost := asset.CapexRM - taxSavings

	payback := PaybackSentinelYears
	if annualSavings > 0 {
		payback = round2(effectiveCost / annualSavings)
	}

	var roi float64
	if effectiveCost > 0 {
		roi = round1((annualSavings*lifetime - effectiveCost) / effectiveCost * 100)
	}

	return InvestmentResult{
		PaybackPeriodYears: payback,
		AnnualSavingsRM:    annualSavings,
		TaxSavingsRM:       taxSavings,
		LifetimeROI:        roi,
	}
}

// BenchmarkResult compares a business's carbon intensity to its sector.
type BenchmarkResult struct {
	Performance     string  `json:"performance"`
	Message         string  `json:"message"`
	UserIntensity   float64 `json:"userIntensity"`
	IndustryAverage float64 `json:"industryAverage"`
	PercentDiff     int     `json:"percentDiff"`
}

// IndustryBenchmark compares totalEmissions (tonnes) at annualRevenue (RM)
// against the sector's averageIntensity. Zero revenue falls back to 1 to
// avoid a zero denominator; zero averageIntensity falls back to
// DefaultAverageIntensity. Intensity is kg CO2e per RM of revenue.
func IndustryBenchmark(totalEmissions, annualRevenue, averageIntensity float64) BenchmarkResult {
	if annualRevenue == 0 {
		annualRevenue = 1
	}
	if averageIntensity == 0 {
		averageIntensity = DefaultAverageIntensity
	}

	userIntensity := totalEmissions * 1000 / annualRevenue

	performance := PerformanceWorse
	if userIntensity < averageIntensity {
		performance = PerformanceBetter
	}

	percentDiff := int(math.Round(math.Abs(userIntensity-averageIntensity) / averageIntensity * 100))

	return BenchmarkResult{
		Performance:     performance,
		Message:         fmt.Sprintf("%d%% %s than industry average.", percentDiff, performance),
		UserIntensity:   userIntensity,
		IndustryAverage: averageIntensity,
		PercentDiff:     percentDiff,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
