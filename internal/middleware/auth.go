package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/tobinmarsh/reelnight/internal/auth"
	"github.com/tobinmarsh/reelnight/internal/store"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "reelnight_session"

// RequireSession validates the session cookie, resolves the account's role in
// its active household, and attaches the Identity to the request context.
// Requests without a valid session get a JSON 401.
func RequireSession(sessions *store.SessionStore, users *store.UserStore, households *store.HouseholdStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				unauthorized(w)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				unauthorized(w)
				return
			}

			user, err := users.GetByID(sess.UserID)
			if err != nil || user == nil {
				unauthorized(w)
				return
			}

			id := auth.Identity{
				AccountID: sess.UserID,
				Email:     user.Email,
				SessionID: sess.ID,
			}

			// A session may have no active household yet (fresh account or
			// the household was deleted out from under it); the identity is
			// still valid, household-scoped handlers enforce membership.
			if sess.HouseholdID != 0 {
				member, err := households.GetMember(sess.HouseholdID, sess.UserID)
				if err == nil && member != nil {
					id.HouseholdID = sess.HouseholdID
					id.Role = member.Role
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAdmin rejects requests whose identity lacks the admin role in its
// active household.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			json.NewEncoder(w).Encode(map[string]string{"error": "admin role required"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
}
