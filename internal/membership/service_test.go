package membership

import (
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/tobinmarsh/reelnight/internal/database"
	"github.com/tobinmarsh/reelnight/internal/model"
	"github.com/tobinmarsh/reelnight/internal/store"
)

func setupService(t *testing.T) (*Service, *store.UserStore, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := store.NewUserStore(db)
	svc := NewService(
		store.NewHouseholdStore(db),
		store.NewInvitationStore(db),
		us,
		slog.New(slog.DiscardHandler),
	)
	return svc, us, db
}

func mustCreateUser(t *testing.T, us *store.UserStore, email, name string) *model.User {
	t.Helper()
	u, err := us.Create(email, name, "")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func TestCreateHousehold(t *testing.T) {
	svc, us, _ := setupService(t)
	u := mustCreateUser(t, us, "alice@example.com", "Alice")

	h, err := svc.CreateHousehold("Family", u.ID)
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if h.Name != "Family" {
		t.Errorf("name = %q, want %q", h.Name, "Family")
	}
	if h.CreatedBy != u.ID {
		t.Errorf("created_by = %d, want %d", h.CreatedBy, u.ID)
	}

	members, err := svc.Members(h.ID, u.ID)
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("members = %d, want 1", len(members))
	}
	if members[0].Role != model.RoleAdmin {
		t.Errorf("creator role = %q, want admin", members[0].Role)
	}
}

func TestCreateHouseholdEmptyName(t *testing.T) {
	svc, us, _ := setupService(t)
	u := mustCreateUser(t, us, "alice@example.com", "Alice")

	if _, err := svc.CreateHousehold("  ", u.ID); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestCreateHouseholdCompensation(t *testing.T) {
	svc, us, db := setupService(t)
	u := mustCreateUser(t, us, "alice@example.com", "Alice")

	// Force the membership insert to fail after the household insert
	// succeeds; the household row must be rolled back.
	if _, err := db.Exec(`CREATE TRIGGER force_member_fail BEFORE INSERT ON household_members
		BEGIN SELECT RAISE(ABORT, 'forced failure'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	if _, err := svc.CreateHousehold("Doomed", u.ID); err == nil {
		t.Fatal("expected error from forced membership failure")
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM households WHERE name = 'Doomed'`).Scan(&count); err != nil {
		t.Fatalf("count households: %v", err)
	}
	if count != 0 {
		t.Errorf("orphan households = %d, want 0", count)
	}
}

func TestCreateHouseholdRoundTrip(t *testing.T) {
	svc, us, _ := setupService(t)
	u := mustCreateUser(t, us, "alice@example.com", "Alice")

	if _, err := svc.CreateHousehold("X", u.ID); err != nil {
		t.Fatalf("create household: %v", err)
	}

	households, err := svc.ListHouseholds(u.ID)
	if err != nil {
		t.Fatalf("list households: %v", err)
	}
	found := false
	for _, h := range households {
		if h.Name == "X" {
			found = true
			members, err := svc.Members(h.ID, u.ID)
			if err != nil {
				t.Fatalf("members: %v", err)
			}
			if len(members) != 1 || members[0].UserID != u.ID || members[0].Role != model.RoleAdmin {
				t.Errorf("members = %+v, want exactly creator as admin", members)
			}
		}
	}
	if !found {
		t.Error("household X missing from listing")
	}
}

func TestUpdateHouseholdName(t *testing.T) {
	svc, us, _ := setupService(t)
	alice := mustCreateUser(t, us, "alice@example.com", "Alice")
	bob := mustCreateUser(t, us, "bob@example.com", "Bob")

	h, _ := svc.CreateHousehold("Family", alice.ID)
	if _, err := svc.AddMember(h.ID, bob.ID, model.RoleMember); err != nil {
		t.Fatalf("add member: %v", err)
	}

	if _, err := svc.UpdateHouseholdName(h.ID, "New Family", bob.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("non-creator rename: expected ErrNotAuthorized, got %v", err)
	}

	updated, err := svc.UpdateHouseholdName(h.ID, "New Family", alice.ID)
	if err != nil {
		t.Fatalf("creator rename: %v", err)
	}
	if updated.Name != "New Family" {
		t.Errorf("name = %q, want %q", updated.Name, "New Family")
	}
}

func TestUpdateHouseholdNameRefreshesInvitations(t *testing.T) {
	svc, us, _ := setupService(t)
	alice := mustCreateUser(t, us, "alice@example.com", "Alice")

	h, _ := svc.CreateHousehold("Family", alice.ID)
	res, err := svc.CreateInvitation(h.ID, "carol@example.com", alice.ID)
	if err != nil {
		t.Fatalf("create invitation: %v", err)
	}

	if _, err := svc.UpdateHouseholdName(h.ID, "The Cinephiles", alice.ID); err != nil {
		t.Fatalf("rename: %v", err)
	}

	inv, err := svc.GetInvitation(res.Invitation.ID)
	if err != nil {
		t.Fatalf("get invitation: %v", err)
	}
	if inv.HouseholdName != "The Cinephiles" {
		t.Errorf("household_name = %q, want refreshed name", inv.HouseholdName)
	}
}

func TestAddMemberDuplicate(t *testing.T) {
	svc, us, _ := setupService(t)
	alice := mustCreateUser(t, us, "alice@example.com", "Alice")
	bob := mustCreateUser(t, us, "bob@example.com", "Bob")

	h, _ := svc.CreateHousehold("Family", alice.ID)
	if _, err := svc.AddMember(h.ID, bob.ID, model.RoleMember); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if _, err := svc.AddMember(h.ID, bob.ID, model.RoleMember); !errors.Is(err, ErrDuplicateMember) {
		t.Fatalf("expected ErrDuplicateMember, got %v", err)
	}
}

func TestRemoveMemberLastAdminGuard(t *testing.T) {
	svc, us, _ := setupService(t)
	alice := mustCreateUser(t, us, "alice@example.com", "Alice")
	bob := mustCreateUser(t, us, "bob@example.com", "Bob")

	h, _ := svc.CreateHousehold("Family", alice.ID)
	if _, err := svc.AddMember(h.ID, bob.ID, model.RoleAdmin); err != nil {
		t.Fatalf("add second admin: %v", err)
	}

	// Two admins: removing one succeeds and leaves an admin behind.
	if err := svc.RemoveMember(h.ID, bob.ID, alice.ID); err != nil {
		t.Fatalf("remove non-last admin: %v", err)
	}

	// Sole admin: removal is rejected, even by themself.
	if err := svc.RemoveMember(h.ID, alice.ID, alice.ID); !errors.Is(err, ErrLastAdmin) {
		t.Fatalf("expected ErrLastAdmin, got %v", err)
	}

	members, _ := svc.Members(h.ID, alice.ID)
	admins := 0
	for _, m := range members {
		if m.Role == model.RoleAdmin {
			admins++
		}
	}
	if admins < 1 {
		t.Errorf("admins = %d, invariant requires at least 1", admins)
	}
}

func TestRemoveMemberAuthorization(t *testing.T) {
	svc, us, _ := setupService(t)
	alice := mustCreateUser(t, us, "alice@example.com", "Alice")
	bob := mustCreateUser(t, us, "bob@example.com", "Bob")
	carol := mustCreateUser(t, us, "carol@example.com", "Carol")

	h, _ := svc.CreateHousehold("Family", alice.ID)
	svc.AddMember(h.ID, bob.ID, model.RoleMember)
	svc.AddMember(h.ID, carol.ID, model.RoleMember)

	// A plain member cannot remove another member.
	if err := svc.RemoveMember(h.ID, carol.ID, bob.ID); !errors.Is(err, ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}

	// Anyone may remove themself.
	if err := svc.RemoveMember(h.ID, bob.ID, bob.ID); err != nil {
		t.Fatalf("self-removal: %v", err)
	}

	// The creator may remove anyone.
	if err := svc.RemoveMember(h.ID, carol.ID, alice.ID); err != nil {
		t.Fatalf("creator removal: %v", err)
	}
}

func TestRemoveMemberCleansPendingInvitation(t *testing.T) {
	svc, us, db := setupService(t)
	alice := mustCreateUser(t, us, "alice@example.com", "Alice")
	bob := mustCreateUser(t, us, "bob@example.com", "Bob")

	h, _ := svc.CreateHousehold("Family", alice.ID)
	svc.AddMember(h.ID, bob.ID, model.RoleMember)

	// A stale pending invite for bob's email exists alongside his membership.
	if _, err := svc.CreateInvitation(h.ID, "bob@example.com", alice.ID); err != nil {
		t.Fatalf("create invitation: %v", err)
	}

	if err := svc.RemoveMember(h.ID, bob.ID, alice.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM invitations WHERE household_id = ? AND email = 'bob@example.com' AND status = 'pending'`, h.ID).Scan(&count)
	if count != 0 {
		t.Errorf("pending invitations after removal = %d, want 0", count)
	}
}

func TestMembershipUniqueInvariant(t *testing.T) {
	svc, us, db := setupService(t)
	alice := mustCreateUser(t, us, "alice@example.com", "Alice")
	bob := mustCreateUser(t, us, "bob@example.com", "Bob")

	h, _ := svc.CreateHousehold("Family", alice.ID)
	svc.AddMember(h.ID, bob.ID, model.RoleMember)
	svc.AddMember(h.ID, bob.ID, model.RoleMember) // rejected

	var count int
	db.QueryRow(`SELECT COUNT(*) FROM household_members WHERE household_id = ? AND user_id = ?`, h.ID, bob.ID).Scan(&count)
	if count != 1 {
		t.Errorf("membership rows = %d, want 1", count)
	}
}
