package classify

import (
	"context"
	"fmt"

	"github.com/greenlens/greenlens/internal/llm"
	"github.com/greenlens/greenlens/internal/model"
)

const carbonValuationSystem = `You are a carbon accounting analyst for Malaysian small businesses.
Given one purchased line item, derive its carbon ledger fields under the GHG Protocol.
Respond with a single JSON object and nothing else. Required keys:
"scope" (1, 2 or 3), "activityData" (string describing the activity and amount),
"emissionFactor" (kg CO2e per unit), "gwp" (global warming potential multiplier),
"gef" (grid emission factor, 0 when not grid electricity),
"co2eEmission" (total kg CO2e, non-negative).`

const gitaValuationSystem = `You are a Malaysian green tax incentive (GITA) analyst.
Given one GITA-eligible purchased line item, derive its incentive ledger fields.
Respond with a single JSON object and nothing else. Required keys:
"tier" (integer incentive tier), "sector" (string), "technology" (string),
"asset" (string naming the qualifying asset class),
"gitaAllowance" (RM allowance amount, non-negative).`

// LLMValuer derives ledger fields by asking a language model for a JSON
// object. It performs no retries; a failed call fails the line item.
type LLMValuer struct {
	client llm.Client
}

// NewLLMValuer creates a valuation collaborator backed by the given client.
func NewLLMValuer(client llm.Client) *LLMValuer {
	return &LLMValuer{client: client}
}

// DeriveCarbon asks the model for the carbon-ledger fields of one item.
func (v *LLMValuer) DeriveCarbon(ctx context.Context, item model.LineItem) (map[string]any, error) {
	return v.derive(ctx, carbonValuationSystem, item)
}

// DeriveGita asks the model for the tax-incentive fields of one item.
func (v *LLMValuer) DeriveGita(ctx context.Context, item model.LineItem) (map[string]any, error) {
	return v.derive(ctx, gitaValuationSystem, item)
}

func (v *LLMValuer) derive(ctx context.Context, system string, item model.LineItem) (map[string]any, error) {
	prompt := fmt.Sprintf(
		"Line item:\nname: %s\nsupplier: %s\nquantity: %g %s\nprice: %g %s\ndate: %s",
		item.Name, item.Supplier, item.Quantity, item.Unit, item.Price, item.Currency,
		item.Date.Format("2006-01-02"))

	resp, err := v.client.Complete(ctx, llm.ChatRequest{
		System:   system,
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return nil, err
	}

	derived, err := llm.ParseObject(resp.Text)
	if err != nil {
		return nil, fmt.Errorf("valuation response for %s: %w", item.ID, err)
	}
	return derived, nil
}
