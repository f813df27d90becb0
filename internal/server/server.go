package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tobinmarsh/reelnight/internal/backup"
	"github.com/tobinmarsh/reelnight/internal/email"
	"github.com/tobinmarsh/reelnight/internal/handler"
	"github.com/tobinmarsh/reelnight/internal/membership"
	"github.com/tobinmarsh/reelnight/internal/metadata"
	"github.com/tobinmarsh/reelnight/internal/middleware"
	"github.com/tobinmarsh/reelnight/internal/push"
	"github.com/tobinmarsh/reelnight/internal/store"
	"github.com/tobinmarsh/reelnight/internal/watchlist"
	ws "github.com/tobinmarsh/reelnight/internal/websocket"
)

// Config carries the external service settings the server wires together.
type Config struct {
	BaseURL string

	PostmarkToken string
	FromEmail     string

	OMDBAPIKey string

	VAPIDPublicKey  string
	VAPIDPrivateKey string

	Backup backup.Config
}

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	authH       *handler.AuthHandler
	householdH  *handler.HouseholdHandler
	invitationH *handler.InvitationHandler
	movieH      *handler.MovieHandler
	pushH       *handler.PushHandler
	backupH     *handler.BackupHandler

	sessionStore   *store.SessionStore
	userStore      *store.UserStore
	householdStore *store.HouseholdStore

	rateLimiter *middleware.RateLimiter
	backupMgr   *backup.Manager
	logger      *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	sessionStore := store.NewSessionStore(db)
	invitationStore := store.NewInvitationStore(db)
	movieStore := store.NewMovieStore(db)
	pushStore := store.NewPushStore(db)
	backupStore := store.NewBackupStore(db)

	emailClient := email.NewClient(cfg.PostmarkToken, cfg.FromEmail, cfg.BaseURL)
	metadataClient := metadata.NewClient(cfg.OMDBAPIKey)

	pushSvc := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, "")
	notifier := push.NewNotifier(pushSvc, pushStore, logger)

	membershipSvc := membership.NewService(householdStore, invitationStore, userStore, logger.With("component", "membership"))
	watchlistSvc := watchlist.NewService(movieStore, householdStore, metadataClient, logger.With("component", "watchlist"))

	backupMgr := backup.NewManager(cfg.Backup, db, backupStore, logger)

	return &Server{
		db:  db,
		hub: hub,

		authH:       handler.NewAuthHandler(userStore, sessionStore, householdStore, membershipSvc, logger),
		householdH:  handler.NewHouseholdHandler(membershipSvc, sessionStore, emailClient, hub, logger),
		invitationH: handler.NewInvitationHandler(membershipSvc, sessionStore, userStore, hub, notifier, logger),
		movieH:      handler.NewMovieHandler(watchlistSvc, hub, notifier, logger),
		pushH:       handler.NewPushHandler(pushSvc, pushStore, logger),
		backupH:     handler.NewBackupHandler(backupMgr, backupStore, logger),

		sessionStore:   sessionStore,
		userStore:      userStore,
		householdStore: householdStore,

		rateLimiter: middleware.NewRateLimiter(),
		backupMgr:   backupMgr,
		logger:      logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager so main can run its schedule.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupMgr
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes. The invitation read is deliberately unauthenticated:
	// the id in the URL is the capability.
	outerMux.HandleFunc("POST /api/register", s.rateLimited(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimited(s.authH.Login))
	outerMux.HandleFunc("GET /invite/{id}", s.invitationH.Get)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	sessionMiddleware := middleware.RequireSession(s.sessionStore, s.userStore, s.householdStore)
	outerMux.Handle("/", sessionMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(h).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Households and membership
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("GET /api/households", s.householdH.List)
	mux.HandleFunc("GET /api/households/{id}", s.householdH.Get)
	mux.HandleFunc("PUT /api/households/{id}", s.householdH.Rename)
	mux.HandleFunc("GET /api/households/{id}/members", s.householdH.Members)
	mux.HandleFunc("DELETE /api/households/{id}/members/{userID}", s.householdH.RemoveMember)
	mux.HandleFunc("POST /api/households/switch", s.householdH.Switch)

	// Invitations
	mux.HandleFunc("POST /api/households/{id}/invitations", s.householdH.Invite)
	mux.HandleFunc("GET /api/households/{id}/invitations", s.householdH.Invitations)
	mux.HandleFunc("POST /invite/{id}/accept", s.invitationH.Accept)

	// Watch-list
	mux.HandleFunc("POST /api/movies", s.movieH.Add)
	mux.HandleFunc("GET /api/movies", s.movieH.List)
	mux.HandleFunc("PUT /api/movies/{id}/status", s.movieH.SetStatus)
	mux.HandleFunc("DELETE /api/movies/{id}", s.movieH.Delete)
	mux.HandleFunc("POST /api/movies/pick", s.movieH.Pick)

	// Push notifications
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscribe", s.pushH.Unsubscribe)

	// Backups, admin only
	mux.Handle("POST /api/backups", middleware.RequireAdmin(http.HandlerFunc(s.backupH.Run)))
	mux.Handle("GET /api/backups", middleware.RequireAdmin(http.HandlerFunc(s.backupH.List)))
	mux.Handle("GET /api/backups/{id}/download", middleware.RequireAdmin(http.HandlerFunc(s.backupH.Download)))
	mux.Handle("POST /api/backups/{id}/restore", middleware.RequireAdmin(http.HandlerFunc(s.backupH.Restore)))

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "websocket")))
}
