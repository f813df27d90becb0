package handler

import (
	"log/slog"
	"net/http"

	"github.com/tobinmarsh/reelnight/internal/auth"
	"github.com/tobinmarsh/reelnight/internal/membership"
	"github.com/tobinmarsh/reelnight/internal/push"
	"github.com/tobinmarsh/reelnight/internal/store"
	"github.com/tobinmarsh/reelnight/internal/websocket"
)

type InvitationHandler struct {
	membership *membership.Service
	sessions   *store.SessionStore
	users      *store.UserStore
	hub        *websocket.Hub
	notifier   *push.Notifier
	logger     *slog.Logger
}

func NewInvitationHandler(ms *membership.Service, ss *store.SessionStore, us *store.UserStore, hub *websocket.Hub, notifier *push.Notifier, logger *slog.Logger) *InvitationHandler {
	return &InvitationHandler{
		membership: ms,
		sessions:   ss,
		users:      us,
		hub:        hub,
		notifier:   notifier,
		logger:     logger.With("component", "invitation"),
	}
}

// Get resolves an invitation by id without a session. The id is the
// capability; the share page needs the household name and state before the
// visitor signs in.
func (h *InvitationHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.membership.GetInvitation(r.PathValue("id"))
	if err != nil {
		h.logger.Error("get invitation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if inv == nil {
		writeError(w, http.StatusNotFound, "invitation not found")
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// Accept joins the caller to the invitation's household. Outcomes other
// than success come back as a 200 with a result code, because the client
// renders them as page states, not failures. Success switches the session
// to the joined household.
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	result, err := h.membership.AcceptInvitation(r.PathValue("id"), id.AccountID)
	if err != nil {
		h.logger.Error("accept invitation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if result.Success() && result.Invitation != nil {
		householdID := result.Invitation.HouseholdID
		if err := h.sessions.UpdateHouseholdID(id.SessionID, householdID); err != nil {
			h.logger.Error("switch session household", "error", err)
		}

		if result.Code == membership.CodeAccepted {
			name := id.Email
			if user, err := h.users.GetByID(id.AccountID); err == nil && user != nil && user.Name != "" {
				name = user.Name
			}
			h.hub.Broadcast(householdID, websocket.NewEvent("invitation", "accepted", id.AccountID, map[string]any{"name": name}))
			h.notifier.InviteAccepted(householdID, id.AccountID, name)
		}
	}

	writeJSON(w, http.StatusOK, result)
}
