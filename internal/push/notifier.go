package push

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tobinmarsh/reelnight/internal/model"
	"github.com/tobinmarsh/reelnight/internal/store"
)

// sender abstracts Service for tests.
type sender interface {
	Configured() bool
	Send(sub *model.PushSubscription, payload Payload) error
}

// Notifier fans notifications out to a household's subscriptions. All sends
// are best-effort: failures are logged, expired subscriptions are pruned,
// and the caller never sees an error.
type Notifier struct {
	service sender
	subs    *store.PushStore
	logger  *slog.Logger
}

func NewNotifier(service sender, subs *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{
		service: service,
		subs:    subs,
		logger:  logger.With("component", "push"),
	}
}

// MovieNightPick tells everyone in the household which title was drawn.
// The member who triggered the pick is skipped; they already see the result.
func (n *Notifier) MovieNightPick(householdID, pickedBy int64, title string) {
	n.fanOut(householdID, pickedBy, Payload{
		Title: "Movie Night",
		Body:  fmt.Sprintf("Tonight's pick: %s", title),
		URL:   "/watchlist",
		Tag:   model.NotifTypeMovieNightPick,
	})
}

// InviteAccepted tells existing members that someone joined the household.
func (n *Notifier) InviteAccepted(householdID, joinedID int64, memberName string) {
	n.fanOut(householdID, joinedID, Payload{
		Title: "New member",
		Body:  fmt.Sprintf("%s joined your household", memberName),
		URL:   "/household",
		Tag:   model.NotifTypeInviteAccepted,
	})
}

func (n *Notifier) fanOut(householdID, excludeUserID int64, payload Payload) {
	if n.service == nil || !n.service.Configured() {
		return
	}

	subs, err := n.subs.ListForHousehold(householdID)
	if err != nil {
		n.logger.Error("list subscriptions", "household_id", householdID, "error", err)
		return
	}

	for _, sub := range subs {
		if sub.UserID == excludeUserID {
			continue
		}
		if err := n.service.Send(&sub, payload); err != nil {
			if errors.Is(err, ErrExpired) {
				if err := n.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
					n.logger.Error("prune expired subscription", "error", err)
				}
				continue
			}
			n.logger.Warn("send notification", "user_id", sub.UserID, "error", err)
		}
	}
}
