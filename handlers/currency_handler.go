package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-platform/currency"
)

// RatesCache is implemented by *currency.Cache.
type RatesCache interface {
	GetRates(ctx context.Context, base string) currency.RateTable
	Refresh(ctx context.Context, base string) (currency.RateTable, error)
}

type CurrencyHandler struct {
	rates       RatesCache
	converter   *currency.Converter
	defaultBase string
}

func NewCurrencyHandler(rates RatesCache, defaultBase string) *CurrencyHandler {
	return &CurrencyHandler{
		rates:       rates,
		converter:   currency.NewConverter(rates, defaultBase),
		defaultBase: currency.Normalize(defaultBase),
	}
}

func (h *CurrencyHandler) base(r *http.Request) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("base"))
	if raw == "" {
		return h.defaultBase, nil
	}
	return currency.ParseCode(raw)
}

func (h *CurrencyHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	base, err := h.base(r)
	if err != nil {
		failedValidationResponse(w, r, map[string]string{"base": "is not a valid currency code"})
		return
	}
	table := h.rates.GetRates(r.Context(), base)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"rates": table}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RefreshRates forces a provider fetch. On failure the last served table is returned with 502.
func (h *CurrencyHandler) RefreshRates(w http.ResponseWriter, r *http.Request) {
	base, err := h.base(r)
	if err != nil {
		failedValidationResponse(w, r, map[string]string{"base": "is not a valid currency code"})
		return
	}
	table, err := h.rates.Refresh(r.Context(), base)
	if err != nil {
		response := jsonResponse{"error": err.Error(), "rates": h.rates.GetRates(r.Context(), base)}
		if wErr := writeJSON(w, http.StatusBadGateway, response, nil); wErr != nil {
			serverErrorResponse(w, r, wErr)
		}
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"rates": table}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Convert обрабатывает GET /currency/convert?amount=&from=&to=
func (h *CurrencyHandler) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := strconv.ParseFloat(strings.TrimSpace(q.Get("amount")), 64)
	if err != nil {
		failedValidationResponse(w, r, map[string]string{"amount": "must be a number"})
		return
	}
	from, to := currency.Normalize(q.Get("from")), currency.Normalize(q.Get("to"))
	if from == "" {
		from = currency.Canonical
	}
	if to == "" {
		failedValidationResponse(w, r, map[string]string{"to": "is required"})
		return
	}

	converted := h.converter.Convert(r.Context(), amount, from, to)
	response := jsonResponse{
		"amount":    amount,
		"from":      from,
		"to":        to,
		"result":    converted,
		"formatted": currency.Format(converted, to),
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
