package model

import "time"

// Invitation statuses. Expiry is never stored: a pending invitation past its
// expires_at is rejected at acceptance time.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
)

// Invitation invites an email address to join a household. The id is an
// opaque capability: anyone holding it may read the invitation, but
// acceptance requires a session whose email matches.
type Invitation struct {
	ID            string    `json:"id"`
	HouseholdID   int64     `json:"household_id"`
	Email         string    `json:"email"`
	InvitedBy     int64     `json:"invited_by"`
	Status        string    `json:"status"`
	HouseholdName string    `json:"household_name"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// IsExpired reports whether the invitation's deadline has passed.
func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
