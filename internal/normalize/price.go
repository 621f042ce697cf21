package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PriceDefaults is the replacement table for zero/low prices. Keys are
// matched against the product's category names first, then as substrings
// of the product name; Global is the last resort. Kept separate from the
// field defaults so pricing policy stays one injectable value.
type PriceDefaults struct {
	ByCategory map[string]decimal.Decimal
	Global     decimal.Decimal
}

func (pd *PriceDefaults) Lookup(categories []string, name string) decimal.Decimal {
	if pd == nil {
		return decimal.Zero
	}
	// leaf category first
	for i := len(categories) - 1; i >= 0; i-- {
		if d, ok := pd.ByCategory[foldKey(categories[i])]; ok {
			return d
		}
	}
	lname := strings.ToLower(name)
	for key, d := range pd.ByCategory {
		if key != "" && strings.Contains(lname, key) {
			return d
		}
	}
	return pd.Global
}

// ParsePriceDefaults builds the table from config entries of the form
// "Category=12.50"; the entry "*" (or "default") sets the global value.
func ParsePriceDefaults(entries []string, global decimal.Decimal) *PriceDefaults {
	pd := &PriceDefaults{
		ByCategory: make(map[string]decimal.Decimal),
		Global:     global,
	}
	for _, entry := range entries {
		kv := strings.SplitN(entry, "=", 2)
		if len(kv) != 2 {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(kv[1]))
		if err != nil {
			continue
		}
		key := foldKey(kv[0])
		if key == "*" || key == "default" {
			pd.Global = d
			continue
		}
		pd.ByCategory[key] = d
	}
	return pd
}
