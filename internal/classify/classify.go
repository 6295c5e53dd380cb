// Package classify implements the classification engine that turns raw
// receipt line items into carbon-ledger entries and, for GITA-eligible
// items, tax-incentive-ledger entries. Field derivation is delegated to an
// external valuation collaborator; this package owns the merge of base and
// derived fields and the per-receipt ordering guarantees.
package classify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/greenlens/greenlens/internal/model"
)

// Valuer is the external valuation collaborator. It returns a partial object
// holding the derived ledger fields for one line item. Failures propagate
// untouched: retrying a receipt is the caller's decision, never made here.
type Valuer interface {
	DeriveCarbon(ctx context.Context, item model.LineItem) (map[string]any, error)
	DeriveGita(ctx context.Context, item model.LineItem) (map[string]any, error)
}

// Engine classifies line items into ledger entries.
type Engine struct {
	valuer Valuer
	logger *slog.Logger
}

// New creates a classification engine over the given valuation collaborator.
func New(valuer Valuer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{valuer: valuer, logger: logger}
}

// Classify derives the carbon-ledger entry for one line item. Every line
// item produces exactly one CarbonItem.
func (e *Engine) Classify(ctx context.Context, item model.LineItem) (model.CarbonItem, error) {
	derived, err := e.valuer.DeriveCarbon(ctx, item)
	if err != nil {
		return model.CarbonItem{}, fmt.Errorf("carbon valuation for line item %s: %w", item.ID, err)
	}

	entry, err := mergeCarbon(item, derived)
	if err != nil {
		return model.CarbonItem{}, fmt.Errorf("carbon merge for line item %s: %w", item.ID, err)
	}

	e.logger.Debug("line item classified",
		"line_item_id", item.ID,
		"scope", entry.Scope,
		"co2e", entry.CO2eEmission)
	return entry, nil
}

// ClassifyGita derives the tax-incentive-ledger entry for one line item. It
// must only be invoked for GITA-eligible items; a GitaItem never exists
// without an eligible source line item.
func (e *Engine) ClassifyGita(ctx context.Context, item model.LineItem) (model.GitaItem, error) {
	if !item.GitaEligible {
		return model.GitaItem{}, fmt.Errorf("line item %s is not GITA eligible", item.ID)
	}

	derived, err := e.valuer.DeriveGita(ctx, item)
	if err != nil {
		return model.GitaItem{}, fmt.Errorf("gita valuation for line item %s: %w", item.ID, err)
	}

	entry, err := mergeGita(item, derived)
	if err != nil {
		return model.GitaItem{}, fmt.Errorf("gita merge for line item %s: %w", item.ID, err)
	}

	e.logger.Debug("gita entry derived",
		"line_item_id", item.ID,
		"tier", entry.Tier,
		"allowance", entry.GitaAllowance)
	return entry, nil
}

// ClassifyReceipt classifies a receipt's line items strictly in receipt
// order, one at a time. That keeps failure attribution deterministic and
// bounds concurrent load on the valuation collaborator. The first failure
// aborts the whole receipt.
func (e *Engine) ClassifyReceipt(ctx context.Context, receipt *model.Receipt) ([]model.CarbonItem, []model.GitaItem, error) {
	carbon := make([]model.CarbonItem, 0, len(receipt.LineItems))
	var gita []model.GitaItem

	for i, item := range receipt.LineItems {
		carbonEntry, err := e.Classify(ctx, item)
		if err != nil {
			return nil, nil, fmt.Errorf("receipt %s line %d: %w", receipt.ID, i, err)
		}
		carbon = append(carbon, carbonEntry)

		if !item.GitaEligible {
			continue
		}
		gitaEntry, err := e.ClassifyGita(ctx, item)
		if err != nil {
			return nil, nil, fmt.Errorf("receipt %s line %d: %w", receipt.ID, i, err)
		}
		gita = append(gita, gitaEntry)
	}

	e.logger.Info("receipt classified",
		"receipt_id", receipt.ID,
		"line_items", len(receipt.LineItems),
		"gita_entries", len(gita))
	return carbon, gita, nil
}
