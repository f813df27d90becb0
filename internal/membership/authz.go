package membership

import "github.com/tobinmarsh/reelnight/internal/model"

// In-process authorization checks. These replace storage-side row-visibility
// policies: each predicate is explicit and unit-testable, and a denied read
// looks identical to a missing row at the call site.

// CanViewHousehold reports whether the account is a member of the household.
func (s *Service) CanViewHousehold(householdID, accountID int64) (bool, error) {
	m, err := s.households.GetMember(householdID, accountID)
	if err != nil {
		return false, err
	}
	return m != nil, nil
}

// CanEditHousehold reports whether the account may rename the household.
// Only the creator may; created_by is the sole authorization anchor.
func (s *Service) CanEditHousehold(h *model.Household, accountID int64) bool {
	return h != nil && h.CreatedBy == accountID
}

// CanInvite reports whether the account may issue invitations for the
// household.
func (s *Service) CanInvite(h *model.Household, accountID int64) bool {
	return h != nil && h.CreatedBy == accountID
}

// CanRemoveMember reports whether requester may remove target from the
// household: the creator removes anyone, anyone removes themself.
func (s *Service) CanRemoveMember(h *model.Household, requesterID, targetID int64) bool {
	if h == nil {
		return false
	}
	return h.CreatedBy == requesterID || requesterID == targetID
}
