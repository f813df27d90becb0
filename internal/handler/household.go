package handler

import (
	"log/slog"
	"net/http"

	"github.com/tobinmarsh/reelnight/internal/auth"
	"github.com/tobinmarsh/reelnight/internal/email"
	"github.com/tobinmarsh/reelnight/internal/membership"
	"github.com/tobinmarsh/reelnight/internal/store"
	"github.com/tobinmarsh/reelnight/internal/websocket"
)

type HouseholdHandler struct {
	membership *membership.Service
	sessions   *store.SessionStore
	email      *email.Client
	hub        *websocket.Hub
	logger     *slog.Logger
}

func NewHouseholdHandler(ms *membership.Service, ss *store.SessionStore, ec *email.Client, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{
		membership: ms,
		sessions:   ss,
		email:      ec,
		hub:        hub,
		logger:     logger.With("component", "household"),
	}
}

type createHouseholdRequest struct {
	Name string `json:"name"`
}

// Create makes a new household with the caller as its admin and switches
// the session to it.
func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req createHouseholdRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	household, err := h.membership.CreateHousehold(req.Name, id.AccountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.sessions.UpdateHouseholdID(id.SessionID, household.ID); err != nil {
		h.logger.Error("switch session household", "error", err)
	}

	writeJSON(w, http.StatusCreated, household)
}

// List returns every household the caller belongs to.
func (h *HouseholdHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	households, err := h.membership.ListHouseholds(id.AccountID)
	if err != nil {
		h.logger.Error("list households", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, households)
}

// Get returns one household. Non-members get a 404, not a 403.
func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	householdID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid household id")
		return
	}

	household, err := h.membership.GetHousehold(householdID, id.AccountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, household)
}

type renameHouseholdRequest struct {
	Name string `json:"name"`
}

// Rename updates the household name. Pending invitations pick up the new
// name so their share pages stay accurate.
func (h *HouseholdHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	householdID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid household id")
		return
	}

	var req renameHouseholdRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	household, err := h.membership.UpdateHouseholdName(householdID, req.Name, id.AccountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(householdID, websocket.NewEvent("household", "renamed", householdID, map[string]any{"name": household.Name}))
	writeJSON(w, http.StatusOK, household)
}

// Members lists the household's memberships.
func (h *HouseholdHandler) Members(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	householdID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid household id")
		return
	}

	members, err := h.membership.Members(householdID, id.AccountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

// RemoveMember removes a member, or lets a member leave. The last admin
// cannot be removed.
func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	householdID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid household id")
		return
	}
	userID, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.membership.RemoveMember(householdID, userID, id.AccountID); err != nil {
		writeServiceError(w, err)
		return
	}

	h.hub.Broadcast(householdID, websocket.NewEvent("member", "removed", userID, nil))
	w.WriteHeader(http.StatusNoContent)
}

type switchRequest struct {
	HouseholdID int64 `json:"household_id"`
}

// Switch points the session at another household the caller belongs to.
func (h *HouseholdHandler) Switch(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req switchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := h.membership.GetHousehold(req.HouseholdID, id.AccountID); err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.sessions.UpdateHouseholdID(id.SessionID, req.HouseholdID); err != nil {
		h.logger.Error("switch household", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type inviteRequest struct {
	Email string `json:"email"`
}

// Invite issues (or re-issues) an invitation and mails the share link when
// email is configured. Repeating an invite returns the same link.
func (h *HouseholdHandler) Invite(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	householdID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid household id")
		return
	}

	var req inviteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.membership.CreateInvitation(householdID, req.Email, id.AccountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Delivery is best-effort; the link in the response works either way.
	if h.email.Configured() {
		if err := h.email.SendInvitation(result.Invitation.Email, result.Invitation.HouseholdName, result.Link); err != nil {
			h.logger.Warn("send invitation email", "invitation_id", result.Invitation.ID, "error", err)
		}
	}

	status := http.StatusCreated
	if result.Existing {
		status = http.StatusOK
	}
	writeJSON(w, status, result)
}

// Invitations lists the household's invitations for the creator.
func (h *HouseholdHandler) Invitations(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	householdID, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid household id")
		return
	}

	invitations, err := h.membership.ListInvitations(householdID, id.AccountID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invitations)
}
