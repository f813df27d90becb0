package membership

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tobinmarsh/reelnight/internal/model"
	"github.com/tobinmarsh/reelnight/internal/store"
)

const invitationTTL = 30 * 24 * time.Hour

// Service owns households, memberships, and the invitation lifecycle.
type Service struct {
	households  *store.HouseholdStore
	invitations *store.InvitationStore
	users       *store.UserStore
	logger      *slog.Logger
}

func NewService(hs *store.HouseholdStore, is *store.InvitationStore, us *store.UserStore, logger *slog.Logger) *Service {
	return &Service{
		households:  hs,
		invitations: is,
		users:       us,
		logger:      logger,
	}
}

// CreateHousehold creates a household and makes the creator its admin. The
// two writes are not transactional: if the membership insert fails, the
// household row is deleted again before the error is returned.
func (s *Service) CreateHousehold(name string, creatorID int64) (*model.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: household name is required", ErrValidation)
	}

	h, err := s.households.Create(name, creatorID)
	if err != nil {
		return nil, fmt.Errorf("create household: %w", err)
	}

	if _, err := s.households.AddMember(h.ID, creatorID, model.RoleAdmin); err != nil {
		// Compensate before surfacing the error so no orphan household remains.
		if delErr := s.households.Delete(h.ID); delErr != nil {
			s.logger.Error("compensating household delete failed", "household_id", h.ID, "error", delErr)
		}
		return nil, fmt.Errorf("add creator as admin: %w", err)
	}

	return h, nil
}

// UpdateHouseholdName renames a household. Only the creator may rename. The
// denormalized name on pending invitations is refreshed in the same call.
func (s *Service) UpdateHouseholdName(id int64, name string, requesterID int64) (*model.Household, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: household name is required", ErrValidation)
	}

	h, err := s.households.GetByID(id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNotFound
	}
	if !s.CanEditHousehold(h, requesterID) {
		return nil, ErrNotAuthorized
	}

	updated, err := s.households.UpdateName(id, name)
	if err != nil {
		return nil, err
	}

	if err := s.invitations.RefreshHouseholdName(id, name); err != nil {
		s.logger.Error("refresh invitation household name", "household_id", id, "error", err)
	}

	return updated, nil
}

// ListHouseholds returns every household the account belongs to.
func (s *Service) ListHouseholds(accountID int64) ([]model.Household, error) {
	return s.households.ListHouseholdsForUser(accountID)
}

// GetHousehold returns the household if the requester is a member, else
// ErrNotFound (membership and existence are indistinguishable to outsiders).
func (s *Service) GetHousehold(id, requesterID int64) (*model.Household, error) {
	h, err := s.households.GetByID(id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNotFound
	}
	ok, err := s.CanViewHousehold(id, requesterID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return h, nil
}

// Members lists the household's memberships, member-visible only.
func (s *Service) Members(householdID, requesterID int64) ([]model.Membership, error) {
	ok, err := s.CanViewHousehold(householdID, requesterID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return s.households.ListMembers(householdID)
}

// AddMember adds an account to a household. A uniqueness violation becomes
// ErrDuplicateMember.
func (s *Service) AddMember(householdID, userID int64, role string) (*model.Membership, error) {
	if role == "" {
		role = model.RoleMember
	}
	m, err := s.households.AddMember(householdID, userID, role)
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, ErrDuplicateMember
		}
		return nil, err
	}
	return m, nil
}

// RemoveMember removes an account from a household. The requester must be
// the household creator or the member removing themself. Removing the sole
// admin is rejected.
//
// The admin count is a read-then-check: two concurrent removals of two
// different admins can each observe "more than one admin" and leave the
// household with none. Accepted hazard; single-row deletes stay atomic.
func (s *Service) RemoveMember(householdID, userID, requesterID int64) error {
	h, err := s.households.GetByID(householdID)
	if err != nil {
		return err
	}
	if h == nil {
		return ErrNotFound
	}

	target, err := s.households.GetMember(householdID, userID)
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotFound
	}

	if !s.CanRemoveMember(h, requesterID, userID) {
		return ErrNotAuthorized
	}

	if target.Role == model.RoleAdmin {
		admins, err := s.households.CountAdmins(householdID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}

	if err := s.households.RemoveMember(householdID, userID); err != nil {
		return err
	}

	// Best-effort: drop any stale pending invitation for the removed member's
	// email so a later re-invite starts clean. Never fails the removal.
	if user, err := s.users.GetByID(userID); err == nil && user != nil {
		if err := s.invitations.DeletePending(householdID, normalizeEmail(user.Email)); err != nil {
			s.logger.Warn("invitation cleanup after removal", "household_id", householdID, "user_id", userID, "error", err)
		}
	}

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
