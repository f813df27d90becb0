package push

import (
	"log/slog"
	"testing"

	"github.com/tobinmarsh/reelnight/internal/database"
	"github.com/tobinmarsh/reelnight/internal/model"
	"github.com/tobinmarsh/reelnight/internal/store"
)

type stubSender struct {
	configured bool
	sendErr    error
	sent       []model.PushSubscription
}

func (s *stubSender) Configured() bool { return s.configured }

func (s *stubSender) Send(sub *model.PushSubscription, payload Payload) error {
	s.sent = append(s.sent, *sub)
	return s.sendErr
}

func setupNotifier(t *testing.T, svc sender) (*Notifier, *store.PushStore, int64, []int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := store.NewUserStore(db)
	hs := store.NewHouseholdStore(db)
	ps := store.NewPushStore(db)

	alice, _ := us.Create("alice@example.com", "Alice", "")
	bob, _ := us.Create("bob@example.com", "Bob", "")
	h, _ := hs.Create("Movie Club", alice.ID)
	hs.AddMember(h.ID, alice.ID, "admin")
	hs.AddMember(h.ID, bob.ID, "member")

	if _, err := ps.Subscribe(alice.ID, "https://push.example/alice", "p256dh-a", "auth-a"); err != nil {
		t.Fatalf("subscribe alice: %v", err)
	}
	if _, err := ps.Subscribe(bob.ID, "https://push.example/bob", "p256dh-b", "auth-b"); err != nil {
		t.Fatalf("subscribe bob: %v", err)
	}

	n := NewNotifier(svc, ps, slog.New(slog.DiscardHandler))
	return n, ps, h.ID, []int64{alice.ID, bob.ID}
}

func TestMovieNightPickExcludesPicker(t *testing.T) {
	svc := &stubSender{configured: true}
	n, _, hID, userIDs := setupNotifier(t, svc)

	n.MovieNightPick(hID, userIDs[0], "Alien")

	if len(svc.sent) != 1 {
		t.Fatalf("sent to %d subscriptions, want 1", len(svc.sent))
	}
	if svc.sent[0].UserID != userIDs[1] {
		t.Errorf("sent to user %d, want %d", svc.sent[0].UserID, userIDs[1])
	}
}

func TestInviteAcceptedNotifiesExistingMembers(t *testing.T) {
	svc := &stubSender{configured: true}
	n, _, hID, userIDs := setupNotifier(t, svc)

	n.InviteAccepted(hID, userIDs[1], "Bob")

	if len(svc.sent) != 1 {
		t.Fatalf("sent to %d subscriptions, want 1", len(svc.sent))
	}
	if svc.sent[0].UserID != userIDs[0] {
		t.Errorf("sent to user %d, want %d", svc.sent[0].UserID, userIDs[0])
	}
}

func TestNotifierUnconfiguredIsNoop(t *testing.T) {
	svc := &stubSender{configured: false}
	n, _, hID, userIDs := setupNotifier(t, svc)

	n.MovieNightPick(hID, userIDs[0], "Alien")

	if len(svc.sent) != 0 {
		t.Errorf("sent %d notifications, want 0 when unconfigured", len(svc.sent))
	}
}

func TestNotifierPrunesExpiredSubscriptions(t *testing.T) {
	svc := &stubSender{configured: true, sendErr: ErrExpired}
	n, ps, hID, userIDs := setupNotifier(t, svc)

	n.MovieNightPick(hID, userIDs[0], "Alien")

	subs, err := ps.ListForUser(userIDs[1])
	if err != nil {
		t.Fatalf("list subscriptions: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("expected expired subscription pruned, %d remain", len(subs))
	}
}
