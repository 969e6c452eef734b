package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gladiator-fit/backend/middleware"
	"github.com/gladiator-fit/backend/services"
	"github.com/gladiator-fit/backend/ws"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WebSocketHandler struct {
	hub           *ws.Hub
	battleService services.BattleService
	voteService   services.VoteService
	logger        *slog.Logger
}

func NewWebSocketHandler(hub *ws.Hub, battleService services.BattleService, voteService services.VoteService, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		battleService: battleService,
		voteService:   voteService,
		logger:        logger,
	}
}

// SubscribeBattle godoc
// @Summary Live vote and completion events for a battle
// @Tags websocket
// @Param battleID path string true "Battle ID"
// @Success 101 {string} string "Switching Protocols"
// @Security BearerAuth
// @Router /ws/battles/{battleID} [get]
func (h *WebSocketHandler) SubscribeBattle(w http.ResponseWriter, r *http.Request) {
	battleID, err := getUUIDFromURL(r, "battleID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	ok, err := h.canWatch(r, battleID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if !ok {
		forbiddenResponse(w, r, "you are not part of this battle")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "battle_id", battleID, "error", err)
		return
	}

	ws.NewClient(h.hub, conn, battleID)
}

// canWatch reports whether the user is a competitor in the battle or a
// voter assigned to it.
func (h *WebSocketHandler) canWatch(r *http.Request, battleID, userID string) (bool, error) {
	_, err := h.battleService.GetDetail(r.Context(), battleID, userID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, services.ErrBattleNotFound) {
		return false, err
	}

	votable, err := h.voteService.ListVotableBattles(r.Context(), userID)
	if err != nil {
		return false, err
	}
	for _, b := range votable {
		if b.ID == battleID {
			return true, nil
		}
	}
	return false, nil
}
