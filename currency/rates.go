package currency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

var (
	ErrNetwork          = errors.New("exchange rate provider unreachable")
	ErrRatesUnavailable = errors.New("exchange rates unavailable")
)

// RateTable - курсы валют: единиц валюты за 1 единицу Base.
type RateTable struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
	Fallback  bool               `json:"fallback"`
}

// Rate returns the rate for code after alias normalization.
func (t RateTable) Rate(code string) (float64, bool) {
	r, ok := t.Rates[Normalize(code)]
	if !ok || r <= 0 {
		return 0, false
	}
	return r, true
}

// Covers reports whether every code in codes has a usable rate.
func (t RateTable) Covers(codes []string) bool {
	for _, c := range codes {
		if _, ok := t.Rate(c); !ok {
			return false
		}
	}
	return true
}

// FallbackTable returns the static table rebased on base. Unknown bases fall back to XOF.
func FallbackTable(base string) RateTable {
	base = Normalize(base)
	pivot, ok := fallbackRates[base]
	if !ok {
		base, pivot = Canonical, 1
	}
	rates := make(map[string]float64, len(fallbackRates))
	for code, r := range fallbackRates {
		rates[code] = r / pivot
	}
	return RateTable{Base: base, Rates: rates, Fallback: true}
}

// Provider загружает актуальную таблицу курсов для base.
type Provider interface {
	Fetch(ctx context.Context, base string) (RateTable, error)
}

type erAPIResponse struct {
	Result    string             `json:"result"`
	BaseCode  string             `json:"base_code"`
	Rates     map[string]float64 `json:"rates"`
	ErrorType string             `json:"error-type"`
}

// HTTPProvider talks to an open.er-api.com compatible endpoint: GET {baseURL}/{base}.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

func NewHTTPProvider(baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Fetch(ctx context.Context, base string) (RateTable, error) {
	base = Normalize(base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/"+base, nil)
	if err != nil {
		return RateTable{}, fmt.Errorf("failed to build rates request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return RateTable{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RateTable{}, fmt.Errorf("%w: provider returned status %d", ErrRatesUnavailable, resp.StatusCode)
	}

	var payload erAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return RateTable{}, fmt.Errorf("%w: malformed payload: %w", ErrRatesUnavailable, err)
	}
	if payload.Result != "success" {
		return RateTable{}, fmt.Errorf("%w: result %q (%s)", ErrRatesUnavailable, payload.Result, payload.ErrorType)
	}
	if len(payload.Rates) == 0 {
		return RateTable{}, fmt.Errorf("%w: payload has no rates", ErrRatesUnavailable)
	}

	table := RateTable{Base: base, Rates: make(map[string]float64, len(payload.Rates)), FetchedAt: time.Now()}
	for code, r := range payload.Rates {
		table.Rates[strings.ToUpper(code)] = r
	}
	table.Rates[base] = 1
	return table, nil
}
