// Package currency converts amounts stored in the canonical currency (XOF) into a
// user's display currency and formats them for display.
package currency

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// Canonical - валюта, в которой хранятся все суммы на сервере.
const Canonical = "XOF"

// aliases maps legacy or display labels to ISO 4217 codes.
var aliases = map[string]string{
	"FCFA": "XOF",
	"CFA":  "XOF",
	"€":    "EUR",
	"EURO": "EUR",
	"$":    "USD",
}

// fallbackRates are units per 1 XOF. EUR is the legal XOF peg.
var fallbackRates = map[string]float64{
	"XOF": 1,
	"XAF": 1,
	"EUR": 1 / 655.957,
	"USD": 0.00165,
	"GNF": 14.2,
	"NGN": 2.55,
	"GHS": 0.0205,
	"CDF": 4.7,
	"MAD": 0.0165,
}

var symbols = map[string]string{
	"XOF": "FCFA",
	"XAF": "FCFA",
	"EUR": "€",
	"USD": "$",
	"GNF": "GNF",
	"NGN": "₦",
	"GHS": "GH₵",
	"CDF": "FC",
	"MAD": "DH",
}

// decimalPlaces lists currencies displayed with minor units. Everything else uses 0.
var decimalPlaces = map[string]int{
	"EUR": 2,
	"USD": 2,
}

// Normalize приводит код валюты к каноническому ISO-коду с учётом алиасов.
func Normalize(code string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if iso, ok := aliases[c]; ok {
		return iso
	}
	return c
}

// ParseCode normalizes code and checks it is a known ISO 4217 currency.
func ParseCode(code string) (string, error) {
	c := Normalize(code)
	if c == "" {
		return "", fmt.Errorf("currency code is required")
	}
	unit, err := currency.ParseISO(c)
	if err != nil {
		return "", fmt.Errorf("unknown currency code %q: %w", code, err)
	}
	return unit.String(), nil
}

// Supported returns the codes of the fallback set.
func Supported() []string {
	codes := make([]string, 0, len(fallbackRates))
	for code := range fallbackRates {
		codes = append(codes, code)
	}
	return codes
}

func Symbol(code string) string {
	c := Normalize(code)
	if s, ok := symbols[c]; ok {
		return s
	}
	return c
}

func Decimals(code string) int {
	return decimalPlaces[Normalize(code)]
}
