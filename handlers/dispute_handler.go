package handlers

import (
	"net/http"
	"strings"

	"github.com/Dosada05/tournament-platform/models"
	"github.com/Dosada05/tournament-platform/services"
)

type DisputeHandler struct {
	disputeService services.DisputeService
}

func NewDisputeHandler(disputeService services.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputeService: disputeService}
}

// resolveDisputeRequest accepts either decision=approve|reject or status=approved|rejected.
type resolveDisputeRequest struct {
	Decision     string `json:"decision"`
	Status       string `json:"status"`
	Comment      string `json:"comment"`
	AdminComment string `json:"admin_comment"`
}

func (req resolveDisputeRequest) decision() models.Decision {
	if req.Decision != "" {
		return models.Decision(strings.ToLower(strings.TrimSpace(req.Decision)))
	}
	switch models.DisputeStatus(strings.ToLower(strings.TrimSpace(req.Status))) {
	case models.DisputeStatusApproved:
		return models.DecisionApprove
	case models.DisputeStatusRejected:
		return models.DecisionReject
	}
	return models.Decision(req.Status)
}

func (req resolveDisputeRequest) comment() string {
	if strings.TrimSpace(req.Comment) != "" {
		return req.Comment
	}
	return req.AdminComment
}

func (h *DisputeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _, err := currentUser(r)
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var req services.CreateDisputeRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input, err := req.Input()
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	dispute, err := h.disputeService.CreateDispute(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"dispute": dispute}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DisputeHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, _, err := currentUser(r)
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	disputes, err := h.disputeService.ListForUser(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"disputes": disputes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DisputeHandler) ListForValidator(w http.ResponseWriter, r *http.Request) {
	var status *models.DisputeStatus
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		s := models.DisputeStatus(strings.ToLower(raw))
		status = &s
	}
	disputes, err := h.disputeService.ListForValidator(r.Context(), status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"disputes": disputes}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DisputeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	userID, role, err := currentUser(r)
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	disputeID, err := readIDParam(r, "disputeID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var req resolveDisputeRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if req.Decision == "" && req.Status == "" {
		mapServiceErrorToHTTP(w, r, &services.ValidationError{Field: "decision", Message: "is required"})
		return
	}

	dispute, err := h.disputeService.ResolveDispute(r.Context(), services.ResolveDisputeInput{
		DisputeID:    disputeID,
		Decision:     req.decision(),
		Comment:      req.comment(),
		ResolverID:   userID,
		ResolverRole: role,
	})
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"dispute": dispute}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DisputeHandler) ListRewards(w http.ResponseWriter, r *http.Request) {
	userID, _, err := currentUser(r)
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	summary, err := h.disputeService.ListRewards(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"rewards": summary}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DisputeHandler) CollectReward(w http.ResponseWriter, r *http.Request) {
	userID, _, err := currentUser(r)
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}
	rewardID, err := readIDParam(r, "rewardID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reward, err := h.disputeService.ClaimReward(r.Context(), rewardID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"reward": reward}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
