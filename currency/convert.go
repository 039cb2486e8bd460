package currency

import (
	"context"

	"github.com/dustin/go-humanize"
)

// RateSource is satisfied by *Cache.
type RateSource interface {
	GetRates(ctx context.Context, base string) RateTable
}

type Converter struct {
	rates RateSource
	base  string
}

func NewConverter(rates RateSource, base string) *Converter {
	if base == "" {
		base = Canonical
	}
	return &Converter{rates: rates, base: Normalize(base)}
}

// Convert пересчитывает amount из from в to через базовую валюту.
// Identical codes (after aliases) return amount untouched.
func (c *Converter) Convert(ctx context.Context, amount float64, from, to string) float64 {
	from, to = Normalize(from), Normalize(to)
	if from == to {
		return amount
	}
	converted, _ := convertWith(c.rates.GetRates(ctx, c.base), amount, from, to)
	return converted
}

// ConvertSync converts with the static fallback table only. No I/O.
func ConvertSync(amount float64, from, to string) float64 {
	from, to = Normalize(from), Normalize(to)
	if from == to {
		return amount
	}
	converted, _ := convertWith(FallbackTable(Canonical), amount, from, to)
	return converted
}

// convertWith reports false when neither table knows both codes; amount is then returned unchanged.
func convertWith(table RateTable, amount float64, from, to string) (float64, bool) {
	rFrom, okFrom := table.Rate(from)
	rTo, okTo := table.Rate(to)
	if !okFrom || !okTo {
		fb := FallbackTable(Canonical)
		rFrom, okFrom = fb.Rate(from)
		rTo, okTo = fb.Rate(to)
		if !okFrom || !okTo {
			return amount, false
		}
	}
	return amount / rFrom * rTo, true
}

func convertible(table RateTable, code string) bool {
	code = Normalize(code)
	if code == Canonical {
		return true
	}
	_, ok := convertWith(table, 1, Canonical, code)
	return ok
}

// DisplayCodeSync is DisplayCode against the fallback table only.
func DisplayCodeSync(to string) string {
	if convertible(FallbackTable(Canonical), to) {
		return Normalize(to)
	}
	return Canonical
}

// Format renders amount with the currency's fixed decimal policy, space-grouped
// thousands, comma decimals and the symbol appended after a space.
func Format(amount float64, code string) string {
	code = Normalize(code)
	pattern := "# ###."
	if Decimals(code) == 2 {
		pattern = "# ###,##"
	}
	return humanize.FormatFloat(pattern, amount) + " " + Symbol(code)
}

// DisplayCode returns to when a rate from the canonical currency is known, otherwise Canonical,
// so an unconverted amount is never labelled with a foreign code.
func (c *Converter) DisplayCode(ctx context.Context, to string) string {
	if convertible(c.rates.GetRates(ctx, c.base), to) {
		return Normalize(to)
	}
	return Canonical
}

// Display converts from the canonical currency and formats in one step.
func (c *Converter) Display(ctx context.Context, amount float64, to string) string {
	code := c.DisplayCode(ctx, to)
	return Format(c.Convert(ctx, amount, Canonical, code), code)
}
