// Package model defines the core domain models used throughout the application.
package model

import "time"

// LineItem is a single purchased item as extracted from a receipt image.
// It is immutable once produced by extraction; corrections are new receipts.
type LineItem struct {
	Date         time.Time `json:"date" bson:"date"`
	ID           string    `json:"id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Supplier     string    `json:"supplier" bson:"supplier"`
	Unit         string    `json:"unit" bson:"unit"`
	Currency     string    `json:"currency" bson:"currency"`
	Quantity     float64   `json:"quantity" bson:"quantity"`
	Price        float64   `json:"price" bson:"price"`
	GitaEligible bool      `json:"isGitaEligible" bson:"isGitaEligible"`
}

// EntryKind discriminates ledger entry variants. Ledger entries share the
// base LineItem fields plus a tagged extension, so storage and serialization
// stay uniform across variants.
type EntryKind string

// Ledger entry kinds.
const (
	KindCarbon EntryKind = "CARBON"
	KindGita   EntryKind = "GITA"
)

// CarbonItem is a carbon-ledger entry derived from a LineItem. Exactly one
// CarbonItem exists per classified LineItem.
type CarbonItem struct {
	LineItem       `bson:",inline"`
	Kind           EntryKind `json:"kind" bson:"kind"`
	ActivityData   string    `json:"activityData" bson:"activityData"`
	Scope          int       `json:"scope" bson:"scope"`
	EmissionFactor float64   `json:"emissionFactor" bson:"emissionFactor"`
	GWP            float64   `json:"gwp" bson:"gwp"`
	GEF            float64   `json:"gef" bson:"gef"`
	CO2eEmission   float64   `json:"co2eEmission" bson:"co2eEmission"`
}

// GitaItem is a tax-incentive-ledger entry. It exists if and only if the
// source LineItem is GITA eligible.
type GitaItem struct {
	LineItem      `bson:",inline"`
	Kind          EntryKind `json:"kind" bson:"kind"`
	Sector        string    `json:"sector" bson:"sector"`
	Technology    string    `json:"technology" bson:"technology"`
	Asset         string    `json:"asset" bson:"asset"`
	Tier          int       `json:"tier" bson:"tier"`
	GitaAllowance float64   `json:"gitaAllowance" bson:"gitaAllowance"`
}
