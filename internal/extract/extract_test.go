package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenlens/greenlens/internal/llm"
)

type stubVisionClient struct {
	text string
	err  error
}

func (s *stubVisionClient) Complete(context.Context, llm.ChatRequest) (llm.ChatResponse, error) {
	return llm.ChatResponse{}, errors.New("not used")
}

func (s *stubVisionClient) CompleteVision(context.Context, string, []byte, string) (string, error) {
	return s.text, s.err
}

const receiptJSON = "```json\n" + `{
  "vendor": "CoolTech Sdn Bhd",
  "date": "2026-02-01",
  "total": 5200,
  "lineItems": [
    {"name": "Inverter Air Conditioner", "supplier": "CoolTech", "quantity": 1, "unit": "unit", "price": 4800, "currency": "MYR", "isGitaEligible": true},
    {"name": "Installation", "quantity": 1, "unit": "service", "price": 400, "isGitaEligible": false}
  ]
}` + "\n```"

func fixedClock() time.Time {
	return time.Date(2026, 2, 2, 8, 0, 0, 0, time.UTC)
}

func TestExtractBuildsReceipt(t *testing.T) {
	e := NewLLMExtractor(&stubVisionClient{text: receiptJSON})
	e.now = fixedClock

	receipt, err := e.Extract(context.Background(), "u-1", []byte("image"))
	require.NoError(t, err)

	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, "u-1", receipt.UserID)
	assert.Equal(t, "CoolTech Sdn Bhd", receipt.Vendor)
	assert.Equal(t, 5200.0, receipt.Total)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), receipt.Date)

	require.Len(t, receipt.LineItems, 2)
	first, second := receipt.LineItems[0], receipt.LineItems[1]

	assert.Equal(t, "Inverter Air Conditioner", first.Name)
	assert.True(t, first.GitaEligible)
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID, "each line item gets a fresh id")

	assert.False(t, second.GitaEligible)
	assert.Equal(t, "MYR", second.Currency, "missing currency defaults to MYR")
}

func TestExtractUnparseableDateFallsBack(t *testing.T) {
	e := NewLLMExtractor(&stubVisionClient{
		text: `{"vendor":"TNB","date":"unknown","total":100,"lineItems":[]}`,
	})
	e.now = fixedClock

	receipt, err := e.Extract(context.Background(), "u-1", []byte("image"))
	require.NoError(t, err)
	assert.Equal(t, fixedClock(), receipt.Date)
}

func TestExtractModelFailure(t *testing.T) {
	e := NewLLMExtractor(&stubVisionClient{err: errors.New("vision timeout")})

	_, err := e.Extract(context.Background(), "u-1", []byte("image"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "receipt extraction")
}

func TestExtractNonJSONReply(t *testing.T) {
	e := NewLLMExtractor(&stubVisionClient{text: "I couldn't read that image, sorry."})

	_, err := e.Extract(context.Background(), "u-1", []byte("image"))
	assert.Error(t, err)
}
