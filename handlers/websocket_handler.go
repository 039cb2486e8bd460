package handlers

import (
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/Dosada05/tournament-platform/middleware"
	"github.com/Dosada05/tournament-platform/realtime"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var roomPattern = regexp.MustCompile(`^(validators|user_[0-9]+|tournament_[0-9]+)$`)

type WebSocketHandler struct {
	hub      *realtime.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" or an empty list allows any origin.
func NewWebSocketHandler(hub *realtime.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			Subprotocols:    []string{middleware.WebSocketProtocol},
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origins["*"] || origin == "" || origins[origin]
			},
		},
	}
}

// authorizeRoom: tournament_<id> is public, user_<id> belongs to that user,
// validators is open to validators and admins.
func authorizeRoom(r *http.Request, room string) (int, string) {
	if strings.HasPrefix(room, "tournament_") {
		return http.StatusOK, ""
	}
	userID, role, err := currentUser(r)
	if err != nil {
		return http.StatusUnauthorized, "authentication is required for this room"
	}
	if room == realtime.RoomValidators {
		if !role.CanResolveDisputes() {
			return http.StatusForbidden, "room is reserved for validators"
		}
		return http.StatusOK, ""
	}
	owner, err := strconv.Atoi(strings.TrimPrefix(room, "user_"))
	if err != nil || owner != userID {
		return http.StatusForbidden, "room belongs to another user"
	}
	return http.StatusOK, ""
}

// ServeWs подключает клиента к комнате /ws/{room}.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	if !roomPattern.MatchString(room) {
		notFoundResponse(w, r)
		return
	}
	switch status, message := authorizeRoom(r, room); status {
	case http.StatusUnauthorized:
		unauthorizedResponse(w, r, message)
		return
	case http.StatusForbidden:
		forbiddenResponse(w, r, message)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже отправил HTTP-ошибку клиенту
		h.logger.Warn("websocket upgrade failed", slog.String("room", room), slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, room)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
