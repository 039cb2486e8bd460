package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/tournament-platform/currency"
	"github.com/Dosada05/tournament-platform/middleware"
	"github.com/Dosada05/tournament-platform/models"
	"github.com/Dosada05/tournament-platform/services"
	"github.com/go-chi/chi/v5"
)

type stubDisputeService struct {
	createFn  func(ctx context.Context, reporterID int, input services.DisputeInput) (*models.Dispute, error)
	resolveFn func(ctx context.Context, input services.ResolveDisputeInput) (*models.Dispute, error)
	claimFn   func(ctx context.Context, rewardID, claimantID int) (*models.ValidationReward, error)
	listedFor *models.DisputeStatus
}

func (s *stubDisputeService) IsEligibleForDispute(match *models.Match, now time.Time) bool {
	return true
}

func (s *stubDisputeService) CreateDispute(ctx context.Context, reporterID int, input services.DisputeInput) (*models.Dispute, error) {
	return s.createFn(ctx, reporterID, input)
}

func (s *stubDisputeService) ListForUser(ctx context.Context, userID int) ([]*models.Dispute, error) {
	return []*models.Dispute{{ID: 1, ReporterID: userID}}, nil
}

func (s *stubDisputeService) ListForValidator(ctx context.Context, status *models.DisputeStatus) ([]*models.Dispute, error) {
	s.listedFor = status
	return []*models.Dispute{}, nil
}

func (s *stubDisputeService) ResolveDispute(ctx context.Context, input services.ResolveDisputeInput) (*models.Dispute, error) {
	return s.resolveFn(ctx, input)
}

func (s *stubDisputeService) ClaimReward(ctx context.Context, rewardID, claimantID int) (*models.ValidationReward, error) {
	return s.claimFn(ctx, rewardID, claimantID)
}

func (s *stubDisputeService) ListRewards(ctx context.Context, validatorID int) (*models.RewardSummary, error) {
	return &models.RewardSummary{Currency: "XOF"}, nil
}

// withUser injects an authenticated identity the way middleware.Authenticate would.
func withUser(userID int, role models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithClaims(r.Context(), userID, role)))
		})
	}
}

func disputeRouter(h *DisputeHandler, userID int, role models.UserRole) http.Handler {
	r := chi.NewRouter()
	if userID > 0 {
		r.Use(withUser(userID, role))
	}
	r.Post("/disputes", h.Create)
	r.Get("/disputes/user", h.ListForUser)
	r.Get("/disputes/validator", h.ListForValidator)
	r.Put("/disputes/{disputeID}/status", h.Resolve)
	r.Post("/rewards/{rewardID}/collect", h.CollectReward)
	return r
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response %q: %v", rr.Body.String(), err)
	}
	return body
}

func TestCreateDisputeHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{"validation", `{"category":"match_result","match_id":1,"opponent_id":2}`, &services.ValidationError{Field: "player_score", Message: "is required"}, http.StatusUnprocessableEntity},
		{"window closed", `{"category":"complaint","match_id":1,"opponent_id":2,"description":"x"}`, services.ErrDisputeWindowClosed, http.StatusConflict},
		{"duplicate", `{"category":"complaint","match_id":1,"opponent_id":2,"description":"x"}`, services.ErrDisputeDuplicate, http.StatusConflict},
		{"match not found", `{"category":"complaint","match_id":1,"opponent_id":2,"description":"x"}`, services.ErrMatchNotFound, http.StatusNotFound},
		{"not a player", `{"category":"complaint","match_id":1,"opponent_id":2,"description":"x"}`, fmt.Errorf("%w: nope", services.ErrForbiddenOperation), http.StatusForbidden},
		{"database down", `{"category":"complaint","match_id":1,"opponent_id":2,"description":"x"}`, errors.New("pq: connection refused"), http.StatusInternalServerError},
		{"unknown category", `{"category":"refund","match_id":1,"opponent_id":2}`, nil, http.StatusUnprocessableEntity},
		{"malformed json", `{"category":`, nil, http.StatusBadRequest},
		{"unknown field", `{"category":"complaint","amount":5}`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubDisputeService{createFn: func(ctx context.Context, reporterID int, input services.DisputeInput) (*models.Dispute, error) {
				return nil, tt.err
			}}
			req := httptest.NewRequest(http.MethodPost, "/disputes", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			disputeRouter(NewDisputeHandler(svc), 1, models.RolePlayer).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			body := decodeBody(t, rr)
			if _, ok := body["error"]; !ok {
				t.Errorf("expected error envelope, got %v", body)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(rr.Body.String(), "pq:") {
				t.Error("internal error details must not leak")
			}
		})
	}
}

func TestCreateDisputeHandler_ValidationBody(t *testing.T) {
	svc := &stubDisputeService{createFn: func(ctx context.Context, reporterID int, input services.DisputeInput) (*models.Dispute, error) {
		return nil, &services.ValidationError{Field: "proof_url", Message: "is required"}
	}}
	req := httptest.NewRequest(http.MethodPost, "/disputes", strings.NewReader(`{"category":"match_result","match_id":1,"opponent_id":2}`))
	rr := httptest.NewRecorder()
	disputeRouter(NewDisputeHandler(svc), 1, models.RolePlayer).ServeHTTP(rr, req)

	body := decodeBody(t, rr)
	fields, ok := body["error"].(map[string]interface{})
	if !ok || fields["proof_url"] != "is required" {
		t.Errorf("expected field error, got %v", body)
	}
}

func TestCreateDisputeHandler_Success(t *testing.T) {
	var gotReporter int
	var gotInput services.DisputeInput
	svc := &stubDisputeService{createFn: func(ctx context.Context, reporterID int, input services.DisputeInput) (*models.Dispute, error) {
		gotReporter, gotInput = reporterID, input
		return &models.Dispute{ID: 9, ReporterID: reporterID, Status: models.DisputeStatusPending}, nil
	}}
	body := `{"category":"match_result","match_id":4,"opponent_id":2,"player_score":3,"opponent_score":1,"proof_url":"https://cdn.example.com/p.jpg"}`
	req := httptest.NewRequest(http.MethodPost, "/disputes", strings.NewReader(body))
	rr := httptest.NewRecorder()
	disputeRouter(NewDisputeHandler(svc), 5, models.RolePlayer).ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	in, ok := gotInput.(services.MatchResultInput)
	if gotReporter != 5 || !ok || *in.PlayerScore != 3 || in.MatchID != 4 {
		t.Errorf("unexpected call: reporter=%d input=%#v", gotReporter, gotInput)
	}
}

func TestDisputeHandler_Unauthenticated(t *testing.T) {
	h := NewDisputeHandler(&stubDisputeService{})
	req := httptest.NewRequest(http.MethodGet, "/disputes/user", nil)
	rr := httptest.NewRecorder()
	disputeRouter(h, 0, "").ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rr.Code)
	}
}

func TestResolveHandler(t *testing.T) {
	tests := []struct {
		name         string
		path         string
		body         string
		err          error
		wantStatus   int
		wantDecision models.Decision
		wantComment  string
	}{
		{"approve", "/disputes/3/status", `{"decision":"approve","comment":"confirmed by screenshot"}`, nil, http.StatusOK, models.DecisionApprove, "confirmed by screenshot"},
		{"status form", "/disputes/3/status", `{"status":"rejected","admin_comment":"fake"}`, nil, http.StatusOK, models.DecisionReject, "fake"},
		{"already resolved", "/disputes/3/status", `{"decision":"reject","comment":"late"}`, services.ErrDisputeAlreadyResolved, http.StatusConflict, models.DecisionReject, "late"},
		{"competing result approved", "/disputes/3/status", `{"decision":"approve","comment":"ok"}`, services.ErrMatchResultSettled, http.StatusConflict, models.DecisionApprove, "ok"},
		{"missing decision", "/disputes/3/status", `{"comment":"hm"}`, nil, http.StatusUnprocessableEntity, "", ""},
		{"bad id", "/disputes/abc/status", `{"decision":"approve","comment":"x"}`, nil, http.StatusBadRequest, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got services.ResolveDisputeInput
			svc := &stubDisputeService{resolveFn: func(ctx context.Context, input services.ResolveDisputeInput) (*models.Dispute, error) {
				got = input
				if tt.err != nil {
					return nil, tt.err
				}
				return &models.Dispute{ID: input.DisputeID, Status: models.DisputeStatusApproved}, nil
			}}
			req := httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			disputeRouter(NewDisputeHandler(svc), 42, models.RoleValidator).ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rr.Code, rr.Body.String())
			}
			if tt.wantDecision != "" {
				if got.DisputeID != 3 || got.Decision != tt.wantDecision || got.Comment != tt.wantComment ||
					got.ResolverID != 42 || got.ResolverRole != models.RoleValidator {
					t.Errorf("unexpected service input: %+v", got)
				}
			}
		})
	}
}

func TestCollectRewardHandler(t *testing.T) {
	calls := 0
	svc := &stubDisputeService{claimFn: func(ctx context.Context, rewardID, claimantID int) (*models.ValidationReward, error) {
		calls++
		if calls > 1 {
			return nil, services.ErrRewardAlreadyCollected
		}
		return &models.ValidationReward{ID: rewardID, ValidatorID: claimantID, Status: models.RewardStatusCollected}, nil
	}}
	router := disputeRouter(NewDisputeHandler(svc), 42, models.RoleValidator)

	for i, want := range []int{http.StatusOK, http.StatusConflict} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/rewards/8/collect", nil))
		if rr.Code != want {
			t.Errorf("claim %d: expected %d, got %d", i+1, want, rr.Code)
		}
	}
}

func TestListForValidatorHandler_StatusFilter(t *testing.T) {
	svc := &stubDisputeService{}
	router := disputeRouter(NewDisputeHandler(svc), 42, models.RoleValidator)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/disputes/validator?status=Approved", nil))
	if rr.Code != http.StatusOK || svc.listedFor == nil || *svc.listedFor != models.DisputeStatusApproved {
		t.Errorf("unexpected result: code=%d status=%v", rr.Code, svc.listedFor)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/disputes/validator", nil))
	if svc.listedFor != nil {
		t.Errorf("expected no filter, got %v", *svc.listedFor)
	}
}

type stubUploadService struct {
	err error
	got []byte
}

func (s *stubUploadService) UploadProof(ctx context.Context, userID int, filename string, size int64, reader io.Reader) (string, error) {
	s.got, _ = io.ReadAll(reader)
	if s.err != nil {
		return "", s.err
	}
	return "https://cdn.example.com/disputes/proofs/1/" + filename, nil
}

func multipartRequest(t *testing.T, field, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/uploads/proof", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req.WithContext(middleware.WithClaims(req.Context(), 1, models.RolePlayer))
}

func TestUploadProofHandler(t *testing.T) {
	svc := &stubUploadService{}
	h := NewUploadHandler(svc)

	rr := httptest.NewRecorder()
	h.UploadProof(rr, multipartRequest(t, "file", "shot.png", []byte("png-bytes")))
	if rr.Code != http.StatusCreated || string(svc.got) != "png-bytes" {
		t.Fatalf("expected 201 with file forwarded, got %d: %s", rr.Code, rr.Body.String())
	}

	svc.err = &services.AttachmentError{Reason: "unsupported file type text/plain"}
	rr = httptest.NewRecorder()
	h.UploadProof(rr, multipartRequest(t, "file", "notes.txt", []byte("hello")))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for invalid attachment, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.UploadProof(rr, multipartRequest(t, "other", "shot.png", []byte("x")))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing file field, got %d", rr.Code)
	}
}

type stubRates struct {
	table      currency.RateTable
	refreshErr error
	bases      []string
}

func (s *stubRates) GetRates(ctx context.Context, base string) currency.RateTable {
	s.bases = append(s.bases, base)
	return s.table
}

func (s *stubRates) Refresh(ctx context.Context, base string) (currency.RateTable, error) {
	if s.refreshErr != nil {
		return currency.RateTable{}, s.refreshErr
	}
	return s.table, nil
}

func TestCurrencyHandler(t *testing.T) {
	rates := &stubRates{table: currency.RateTable{Base: "XOF", Rates: map[string]float64{"XOF": 1, "EUR": 0.5}}}
	h := NewCurrencyHandler(rates, "XOF")

	rr := httptest.NewRecorder()
	h.Convert(rr, httptest.NewRequest(http.MethodGet, "/currency/convert?amount=1000&from=FCFA&to=EUR", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["result"] != 500.0 || body["formatted"] != "500,00 €" || body["from"] != "XOF" {
		t.Errorf("unexpected conversion: %v", body)
	}

	rr = httptest.NewRecorder()
	h.Convert(rr, httptest.NewRequest(http.MethodGet, "/currency/convert?amount=abc&to=EUR", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for bad amount, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.GetRates(rr, httptest.NewRequest(http.MethodGet, "/currency/rates?base=euro", nil))
	if rr.Code != http.StatusOK || rates.bases[len(rates.bases)-1] != "EUR" {
		t.Errorf("expected EUR base lookup, got %d %v", rr.Code, rates.bases)
	}

	rr = httptest.NewRecorder()
	h.GetRates(rr, httptest.NewRequest(http.MethodGet, "/currency/rates?base=QQQ", nil))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unknown base, got %d", rr.Code)
	}

	rates.refreshErr = currency.ErrNetwork
	rr = httptest.NewRecorder()
	h.RefreshRates(rr, httptest.NewRequest(http.MethodPost, "/currency/rates/refresh", nil))
	if rr.Code != http.StatusBadGateway {
		t.Errorf("expected 502 when refresh fails, got %d", rr.Code)
	}
	if _, ok := decodeBody(t, rr)["rates"]; !ok {
		t.Error("expected last served table alongside the error")
	}
}
