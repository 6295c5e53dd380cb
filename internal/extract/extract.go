// Package extract turns receipt images into structured receipts. It is a
// thin collaborator around a vision-capable model; the core consumes it as
// a black box returning a line-item list.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/greenlens/greenlens/internal/llm"
	"github.com/greenlens/greenlens/internal/model"
)

// Extractor reads one receipt image into a Receipt with ordered line items.
type Extractor interface {
	Extract(ctx context.Context, userID string, imageBytes []byte) (*model.Receipt, error)
}

const extractionPrompt = `Read this receipt image. Respond with a single JSON object and nothing else:
{
  "vendor": string,
  "date": "YYYY-MM-DD",
  "total": number,
  "lineItems": [
    {
      "name": string,
      "supplier": string,
      "quantity": number,
      "unit": string,
      "price": number,
      "currency": string,
      "isGitaEligible": boolean
    }
  ]
}
Mark isGitaEligible true only for green technology assets such as solar panels,
energy-efficient equipment, EV chargers or rainwater harvesting systems.
Preserve the order items appear on the receipt.`

// extractedReceipt is the model's reply shape.
type extractedReceipt struct {
	Vendor    string `json:"vendor"`
	Date      string `json:"date"`
	Total     float64 `json:"total"`
	LineItems []struct {
		Name         string  `json:"name"`
		Supplier     string  `json:"supplier"`
		Quantity     float64 `json:"quantity"`
		Unit         string  `json:"unit"`
		Price        float64 `json:"price"`
		Currency     string  `json:"currency"`
		GitaEligible bool    `json:"isGitaEligible"`
	} `json:"lineItems"`
}

// LLMExtractor implements Extractor over a vision-capable model client.
type LLMExtractor struct {
	client llm.Client
	now    func() time.Time
}

// NewLLMExtractor creates a vision-backed extractor.
func NewLLMExtractor(client llm.Client) *LLMExtractor {
	return &LLMExtractor{client: client, now: time.Now}
}

// Extract reads the image and builds an immutable receipt with fresh ids.
func (e *LLMExtractor) Extract(ctx context.Context, userID string, imageBytes []byte) (*model.Receipt, error) {
	text, err := e.client.CompleteVision(ctx, extractionPrompt, imageBytes, "image/jpeg")
	if err != nil {
		return nil, fmt.Errorf("receipt extraction: %w", err)
	}

	var extracted extractedReceipt
	if err := llm.ParseInto(text, &extracted); err != nil {
		return nil, fmt.Errorf("receipt extraction: %w", err)
	}

	date, err := time.Parse("2006-01-02", extracted.Date)
	if err != nil {
		date = e.now()
	}

	receipt := &model.Receipt{
		ID:        uuid.NewString(),
		UserID:    userID,
		Vendor:    extracted.Vendor,
		Date:      date,
		Total:     extracted.Total,
		CreatedAt: e.now().UTC(),
	}

	receipt.LineItems = make([]model.LineItem, 0, len(extracted.LineItems))
	for _, li := range extracted.LineItems {
		currency := li.Currency
		if currency == "" {
			currency = "MYR"
		}
		receipt.LineItems = append(receipt.LineItems, model.LineItem{
			ID:           uuid.NewString(),
			Name:         li.Name,
			Supplier:     li.Supplier,
			Quantity:     li.Quantity,
			Unit:         li.Unit,
			Price:        li.Price,
			Currency:     currency,
			GitaEligible: li.GitaEligible,
			Date:         date,
		})
	}

	return receipt, nil
}
