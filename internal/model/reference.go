package model

import "time"

// UserProfile is externally maintained reference data about one business.
// The core reads it; it never writes it.
type UserProfile struct {
	ID                   string  `json:"id" bson:"_id"`
	Industry             string  `json:"industry" bson:"industry"`
	AnnualRevenue        float64 `json:"annualRevenue" bson:"annualRevenue"`
	TotalEmissions       float64 `json:"totalEmissions" bson:"totalEmissions"` // tonnes CO2e
	GitaTaxCreditBalance float64 `json:"gitaTaxCreditBalance" bson:"gitaTaxCreditBalance"`
}

// GreenAsset is a catalog entry for a purchasable green investment.
type GreenAsset struct {
	CertExpiry                time.Time `json:"certExpiry" bson:"certExpiry"`
	ID                        string    `json:"id" bson:"_id"`
	Name                      string    `json:"name" bson:"name"`
	Manufacturer              string    `json:"manufacturer" bson:"manufacturer"`
	CapexRM                   float64   `json:"capexRM" bson:"capexRM"`
	AnnualEnergyOffsetPercent float64   `json:"annualEnergyOffsetPercent" bson:"annualEnergyOffsetPercent"` // 0-1
	AnnualMaintenanceRM       float64   `json:"annualMaintenanceRM" bson:"annualMaintenanceRM"`
	LifetimeYears             float64   `json:"lifetimeYears" bson:"lifetimeYears"`
	GitaEligible              bool      `json:"gitaEligible" bson:"gitaEligible"`
}

// IndustryStats holds the sector reference intensity used for benchmarking.
type IndustryStats struct {
	Industry         string  `json:"industry" bson:"_id"`
	AverageIntensity float64 `json:"averageIntensity" bson:"averageIntensity"` // kg CO2e per RM revenue
}
