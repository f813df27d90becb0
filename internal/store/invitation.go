package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tobinmarsh/reelnight/internal/model"
)

type InvitationStore struct {
	db *sql.DB
}

func NewInvitationStore(db *sql.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

func scanInvitation(scanner interface{ Scan(...any) error }) (*model.Invitation, error) {
	var inv model.Invitation
	err := scanner.Scan(
		&inv.ID, &inv.HouseholdID, &inv.Email, &inv.InvitedBy, &inv.Status,
		&inv.HouseholdName, &inv.CreatedAt, &inv.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

const invitationCols = `id, household_id, email, invited_by, status, household_name, created_at, expires_at`

// Create clears any existing row for (householdID, email) and inserts a fresh
// pending invitation. The uniqueness constraint on (household_id, email) is
// satisfied by delete-then-insert rather than upsert.
func (s *InvitationStore) Create(householdID int64, email string, invitedBy int64, householdName string, expiresAt time.Time) (*model.Invitation, error) {
	if _, err := s.db.Exec(
		`DELETE FROM invitations WHERE household_id = ? AND email = ?`,
		householdID, email,
	); err != nil {
		return nil, fmt.Errorf("clear previous invitation: %w", err)
	}

	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO invitations (id, household_id, email, invited_by, status, household_name, expires_at)
		 VALUES (?, ?, ?, ?, 'pending', ?, ?)`,
		id, householdID, email, invitedBy, householdName, expiresAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert invitation: %w", err)
	}
	return s.GetByID(id)
}

func (s *InvitationStore) GetByID(id string) (*model.Invitation, error) {
	row := s.db.QueryRow(`SELECT `+invitationCols+` FROM invitations WHERE id = ?`, id)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// GetPending returns the pending invitation for (householdID, email), or nil.
func (s *InvitationStore) GetPending(householdID int64, email string) (*model.Invitation, error) {
	row := s.db.QueryRow(
		`SELECT `+invitationCols+` FROM invitations WHERE household_id = ? AND email = ? AND status = 'pending'`,
		householdID, email,
	)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending invitation: %w", err)
	}
	return inv, nil
}

func (s *InvitationStore) ListByHousehold(householdID int64) ([]model.Invitation, error) {
	rows, err := s.db.Query(
		`SELECT `+invitationCols+` FROM invitations WHERE household_id = ? ORDER BY created_at DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var invs []model.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invs = append(invs, *inv)
	}
	return invs, rows.Err()
}

func (s *InvitationStore) MarkAccepted(id string) error {
	_, err := s.db.Exec(`UPDATE invitations SET status = 'accepted' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark invitation accepted: %w", err)
	}
	return nil
}

// SetHouseholdName backfills or refreshes the denormalized household name.
func (s *InvitationStore) SetHouseholdName(id, name string) error {
	_, err := s.db.Exec(`UPDATE invitations SET household_name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("set invitation household name: %w", err)
	}
	return nil
}

// RefreshHouseholdName updates the denormalized name on every pending
// invitation for the household. Called on household rename.
func (s *InvitationStore) RefreshHouseholdName(householdID int64, name string) error {
	_, err := s.db.Exec(
		`UPDATE invitations SET household_name = ? WHERE household_id = ? AND status = 'pending'`,
		name, householdID,
	)
	if err != nil {
		return fmt.Errorf("refresh invitation household name: %w", err)
	}
	return nil
}

// DeletePending removes any pending invitation for (householdID, email).
func (s *InvitationStore) DeletePending(householdID int64, email string) error {
	_, err := s.db.Exec(
		`DELETE FROM invitations WHERE household_id = ? AND email = ? AND status = 'pending'`,
		householdID, email,
	)
	if err != nil {
		return fmt.Errorf("delete pending invitation: %w", err)
	}
	return nil
}
