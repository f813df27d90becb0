package membership

import (
	"fmt"
	"time"

	"github.com/tobinmarsh/reelnight/internal/model"
)

// Accept result codes. Acceptance is a user-facing multi-attempt flow, so
// failures come back as codes rather than errors.
const (
	CodeAccepted        = "accepted"
	CodeAlreadyMember   = "already_member"
	CodeNotFound        = "not_found"
	CodeAlreadyAccepted = "already_accepted"
	CodeExpired         = "expired"
	CodeEmailMismatch   = "email_mismatch"
)

// AcceptResult reports the outcome of an acceptance attempt.
type AcceptResult struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Invitation *model.Invitation `json:"invitation,omitempty"`
}

// Success reports whether the attempt left the account a member.
func (r AcceptResult) Success() bool {
	return r.Code == CodeAccepted || r.Code == CodeAlreadyMember
}

// InviteResult is the outcome of issuing an invitation.
type InviteResult struct {
	Invitation *model.Invitation `json:"invitation"`
	Link       string            `json:"link"`
	Existing   bool              `json:"existing"`
}

// ShareLink returns the path that resolves an invitation. The id itself is
// the capability; no authentication gates the read.
func ShareLink(invitationID string) string {
	return "/invite/" + invitationID
}

// CreateInvitation issues a pending invitation for an email address. Only
// the household creator may invite. A live pending invitation for the same
// (household, email) is returned as-is so repeated invites share one link.
func (s *Service) CreateInvitation(householdID int64, email string, inviterID int64) (*InviteResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}

	h, err := s.households.GetByID(householdID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNotFound
	}
	if !s.CanInvite(h, inviterID) {
		return nil, ErrNotAuthorized
	}

	now := time.Now().UTC()

	existing, err := s.invitations.GetPending(householdID, email)
	if err != nil {
		return nil, err
	}
	if existing != nil && !existing.IsExpired(now) {
		if existing.HouseholdName == "" {
			if err := s.invitations.SetHouseholdName(existing.ID, h.Name); err != nil {
				s.logger.Warn("backfill invitation household name", "invitation_id", existing.ID, "error", err)
			} else {
				existing.HouseholdName = h.Name
			}
		}
		return &InviteResult{Invitation: existing, Link: ShareLink(existing.ID), Existing: true}, nil
	}

	// Stale or accepted rows for this pair are cleared inside Create so the
	// uniqueness constraint never trips.
	inv, err := s.invitations.Create(householdID, email, inviterID, h.Name, now.Add(invitationTTL))
	if err != nil {
		return nil, err
	}

	return &InviteResult{Invitation: inv, Link: ShareLink(inv.ID)}, nil
}

// GetInvitation resolves an invitation by id. Readable without a session.
func (s *Service) GetInvitation(id string) (*model.Invitation, error) {
	return s.invitations.GetByID(id)
}

// ListInvitations returns the household's invitations, newest first. Only
// the household creator may see them.
func (s *Service) ListInvitations(householdID, requesterID int64) ([]model.Invitation, error) {
	h, err := s.households.GetByID(householdID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNotFound
	}
	if !s.CanInvite(h, requesterID) {
		return nil, ErrNotAuthorized
	}
	return s.invitations.ListByHousehold(householdID)
}

// AcceptInvitation attempts to join the invitation's household as accountID.
// Expiry is evaluated here, against expires_at, even though the stored
// status still reads pending.
func (s *Service) AcceptInvitation(id string, accountID int64) (AcceptResult, error) {
	inv, err := s.invitations.GetByID(id)
	if err != nil {
		return AcceptResult{}, err
	}
	if inv == nil {
		return AcceptResult{Code: CodeNotFound, Message: "This invitation does not exist."}, nil
	}

	// Membership first: re-accepting as an existing member is an idempotent
	// success regardless of stored status.
	member, err := s.households.GetMember(inv.HouseholdID, accountID)
	if err != nil {
		return AcceptResult{}, err
	}
	if member != nil {
		if inv.Status == model.InvitationPending {
			if err := s.invitations.MarkAccepted(inv.ID); err != nil {
				return AcceptResult{}, err
			}
		}
		return AcceptResult{Code: CodeAlreadyMember, Message: "You are already a member of this household.", Invitation: inv}, nil
	}

	if inv.Status != model.InvitationPending {
		return AcceptResult{Code: CodeAlreadyAccepted, Message: "This invitation has already been used.", Invitation: inv}, nil
	}
	if inv.IsExpired(time.Now().UTC()) {
		return AcceptResult{Code: CodeExpired, Message: "This invitation has expired. Ask for a new one.", Invitation: inv}, nil
	}

	account, err := s.users.GetByID(accountID)
	if err != nil {
		return AcceptResult{}, err
	}
	if account == nil {
		return AcceptResult{Code: CodeNotFound, Message: "Account not found."}, nil
	}
	if normalizeEmail(account.Email) != normalizeEmail(inv.Email) {
		return AcceptResult{Code: CodeEmailMismatch, Message: "This invitation was sent to a different email address.", Invitation: inv}, nil
	}

	if _, err := s.AddMember(inv.HouseholdID, accountID, model.RoleMember); err != nil {
		if err == ErrDuplicateMember {
			// Raced with another acceptance; treat as membership.
			if markErr := s.invitations.MarkAccepted(inv.ID); markErr != nil {
				return AcceptResult{}, markErr
			}
			return AcceptResult{Code: CodeAlreadyMember, Message: "You are already a member of this household.", Invitation: inv}, nil
		}
		return AcceptResult{}, err
	}

	if err := s.invitations.MarkAccepted(inv.ID); err != nil {
		return AcceptResult{}, err
	}

	return AcceptResult{Code: CodeAccepted, Message: "Welcome to " + inv.HouseholdName + ".", Invitation: inv}, nil
}
