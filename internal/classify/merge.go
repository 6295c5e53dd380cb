package classify

import (
	"encoding/json"
	"fmt"

	"github.com/greenlens/greenlens/internal/model"
)

// Merge precedence: the ledger entry starts from the base LineItem fields,
// then derived fields are overlaid one key at a time. Derived values always
// win on key collision, including collisions with base fields. The overlay
// is explicit and order-independent so the result never depends on map
// iteration order.

func mergeCarbon(item model.LineItem, derived map[string]any) (model.CarbonItem, error) {
	entry := model.CarbonItem{LineItem: item, Kind: model.KindCarbon}
	if err := overlayBase(&entry.LineItem, derived); err != nil {
		return model.CarbonItem{}, err
	}

	var err error
	if entry.Scope, err = intField(derived, "scope", entry.Scope); err != nil {
		return model.CarbonItem{}, err
	}
	entry.ActivityData = strField(derived, "activityData", entry.ActivityData)
	if entry.EmissionFactor, err = numField(derived, "emissionFactor", entry.EmissionFactor); err != nil {
		return model.CarbonItem{}, err
	}
	if entry.GWP, err = numField(derived, "gwp", entry.GWP); err != nil {
		return model.CarbonItem{}, err
	}
	if entry.GEF, err = numField(derived, "gef", entry.GEF); err != nil {
		return model.CarbonItem{}, err
	}
	if entry.CO2eEmission, err = numField(derived, "co2eEmission", entry.CO2eEmission); err != nil {
		return model.CarbonItem{}, err
	}

	if entry.CO2eEmission < 0 {
		return model.CarbonItem{}, fmt.Errorf("derived co2eEmission is negative: %v", entry.CO2eEmission)
	}
	if entry.Scope < 1 || entry.Scope > 3 {
		return model.CarbonItem{}, fmt.Errorf("derived scope %d outside 1..3", entry.Scope)
	}
	return entry, nil
}

func mergeGita(item model.LineItem, derived map[string]any) (model.GitaItem, error) {
	entry := model.GitaItem{LineItem: item, Kind: model.KindGita}
	if err := overlayBase(&entry.LineItem, derived); err != nil {
		return model.GitaItem{}, err
	}

	var err error
	if entry.Tier, err = intField(derived, "tier", entry.Tier); err != nil {
		return model.GitaItem{}, err
	}
	entry.Sector = strField(derived, "sector", entry.Sector)
	entry.Technology = strField(derived, "technology", entry.Technology)
	entry.Asset = strField(derived, "asset", entry.Asset)
	if entry.GitaAllowance, err = numField(derived, "gitaAllowance", entry.GitaAllowance); err != nil {
		return model.GitaItem{}, err
	}

	if entry.GitaAllowance < 0 {
		return model.GitaItem{}, fmt.Errorf("derived gitaAllowance is negative: %v", entry.GitaAllowance)
	}
	return entry, nil
}

// overlayBase applies derived values for base line-item keys.
func overlayBase(item *model.LineItem, derived map[string]any) error {
	item.Name = strField(derived, "name", item.Name)
	item.Supplier = strField(derived, "supplier", item.Supplier)
	item.Unit = strField(derived, "unit", item.Unit)
	item.Currency = strField(derived, "currency", item.Currency)

	var err error
	if item.Quantity, err = numField(derived, "quantity", item.Quantity); err != nil {
		return err
	}
	if item.Price, err = numField(derived, "price", item.Price); err != nil {
		return err
	}
	return nil
}

func strField(derived map[string]any, key, fallback string) string {
	if v, ok := derived[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

func numField(derived map[string]any, key string, fallback float64) (float64, error) {
	v, ok := derived[key]
	if !ok {
		return fallback, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("derived field %s is not numeric: %v", key, v)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("derived field %s is not numeric: %T", key, v)
	}
}

func intField(derived map[string]any, key string, fallback int) (int, error) {
	f, err := numField(derived, key, float64(fallback))
	if err != nil {
		return 0, err
	}
	return int(f), nil
}
