// Package receipts implements the receipt-processing pipeline: extraction,
// sequential classification, and the all-or-nothing ledger write.
package receipts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/greenlens/greenlens/internal/classify"
	"github.com/greenlens/greenlens/internal/common"
	"github.com/greenlens/greenlens/internal/extract"
	"github.com/greenlens/greenlens/internal/model"
	"github.com/greenlens/greenlens/internal/store"
)

// Result is the outcome of processing one receipt image: the created
// receipt plus every derived ledger entry.
type Result struct {
	Receipt     *model.Receipt     `json:"receipt"`
	CarbonItems []model.CarbonItem `json:"carbonItems"`
	GitaItems   []model.GitaItem   `json:"gitaItems"`
}

// Service wires extraction, classification and the ledger store.
type Service struct {
	extractor extract.Extractor
	engine    *classify.Engine
	store     store.Store
	logger    *slog.Logger
}

// NewService creates a receipt-processing service.
func NewService(extractor extract.Extractor, engine *classify.Engine, st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		extractor: extractor,
		engine:    engine,
		store:     st,
		logger:    logger,
	}
}

// Process runs one receipt image through extraction and classification, and
// persists the receipt with all derived entries in a single store call.
// Nothing is written until every line item classified; a failure partway
// leaves no partial ledger state.
func (s *Service) Process(ctx context.Context, userID string, imageBytes []byte) (*Result, error) {
	if userID == "" {
		return nil, common.Validationf("userId is required")
	}
	if len(imageBytes) == 0 {
		return nil, common.Validationf("imageBytes is required")
	}

	receipt, err := s.extractor.Extract(ctx, userID, imageBytes)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	carbon, gita, err := s.engine.ClassifyReceipt(ctx, receipt)
	if err != nil {
		return nil, err
	}

	if err := s.store.SaveReceipt(ctx, receipt, carbon, gita); err != nil {
		return nil, err
	}

	s.logger.Info("receipt processed",
		"receipt_id", receipt.ID,
		"user_id", userID,
		"line_items", len(receipt.LineItems),
		"gita_entries", len(gita))

	return &Result{
		Receipt:     receipt,
		CarbonItems: carbon,
		GitaItems:   gita,
	}, nil
}
