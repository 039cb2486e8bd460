package handlers

import (
	"net/http"
	"time"

	"github.com/Dosada05/tournament-platform/services"
)

type MatchHandler struct {
	matchService services.MatchService
	now          func() time.Time
}

func NewMatchHandler(matchService services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService, now: time.Now}
}

// RecentForDispute lists the caller's matches that are still inside the dispute window.
func (h *MatchHandler) RecentForDispute(w http.ResponseWriter, r *http.Request) {
	userID, _, err := currentUser(r)
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	matches, err := h.matchService.ListRecentForDispute(r.Context(), userID, h.now())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
