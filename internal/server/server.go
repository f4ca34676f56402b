package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rbfontana/acolhe/internal/backup"
	"github.com/rbfontana/acolhe/internal/cep"
	"github.com/rbfontana/acolhe/internal/config"
	"github.com/rbfontana/acolhe/internal/handler"
	"github.com/rbfontana/acolhe/internal/middleware"
	"github.com/rbfontana/acolhe/internal/push"
	"github.com/rbfontana/acolhe/internal/store"
	ws "github.com/rbfontana/acolhe/internal/websocket"
)

type Server struct {
	db  *sql.DB
	hub *ws.Hub

	familyH   *handler.FamilyHandler
	donationH *handler.DonationHandler
	reportH   *handler.ReportHandler
	authH     *handler.AuthHandler
	cepH      *handler.CEPHandler
	pushH     *handler.PushHandler
	backupH   *handler.BackupHandler

	broadcast     *handler.Broadcaster
	sessionStore  *store.SessionStore
	userStore     *store.UserStore
	rateLimiter   *middleware.RateLimiter
	backupManager *backup.Manager
	pushService   *push.Service
	pushScheduler *push.Scheduler
	logger        *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	familyStore := store.NewFamilyStore(db)
	donationStore := store.NewDonationStore(db)
	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	settingsStore := store.NewSettingsStore(db)
	backupStore := store.NewBackupStore(db)
	pushStore := store.NewPushStore(db)

	broadcast := handler.NewBroadcaster(hub, familyStore, donationStore, logger.With("component", "broadcast"))

	backupMgr := backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		},
		DBPath:        cfg.DBPath,
		Passphrase:    cfg.BackupPassphrase,
		RetentionDays: cfg.BackupRetention,
	}, db, backupStore, settingsStore, func(s backup.Status) {
		hub.Broadcast(ws.SnapshotMessage(ws.EntityBackups, s))
	}, logger.With("component", "backup"))

	pushSvc := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.PushSubscriber)
	pushSched := push.NewScheduler(pushSvc, pushStore, familyStore, logger.With("component", "push"))

	cepSvc := cep.NewService()

	return &Server{
		db:            db,
		hub:           hub,
		familyH:       handler.NewFamilyHandler(familyStore, donationStore, broadcast, logger.With("component", "family")),
		donationH:     handler.NewDonationHandler(donationStore, broadcast, logger.With("component", "donation")),
		reportH:       handler.NewReportHandler(familyStore, donationStore, logger.With("component", "report")),
		authH:         handler.NewAuthHandler(userStore, sessionStore, cfg.SecureCookie, logger.With("component", "auth")),
		cepH:          handler.NewCEPHandler(cepSvc, logger.With("component", "cep")),
		pushH:         handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler")),
		backupH:       handler.NewBackupHandler(backupMgr, backupStore, logger.With("component", "backup_handler")),
		broadcast:     broadcast,
		sessionStore:  sessionStore,
		userStore:     userStore,
		rateLimiter:   middleware.NewRateLimiter(),
		backupManager: backupMgr,
		pushService:   pushSvc,
		pushScheduler: pushSched,
		logger:        logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// UserStore returns the user store for bootstrap.
func (s *Server) UserStore() *store.UserStore {
	return s.userStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

// PushScheduler returns the attention-reminder scheduler.
func (s *Server) PushScheduler() *push.Scheduler {
	return s.pushScheduler
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/auth/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes, wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)

	// Family API routes
	mux.HandleFunc("POST /api/families", s.familyH.Create)
	mux.HandleFunc("GET /api/families", s.familyH.List)
	mux.HandleFunc("GET /api/families/{id}", s.familyH.Get)
	mux.HandleFunc("PUT /api/families/{id}", s.familyH.Update)
	mux.HandleFunc("DELETE /api/families/{id}", s.familyH.Delete)
	mux.HandleFunc("GET /api/families/{id}/donations", s.familyH.ListDonations)

	// Donation API routes
	mux.HandleFunc("POST /api/donations", s.donationH.Create)
	mux.HandleFunc("GET /api/donations", s.donationH.List)
	mux.HandleFunc("DELETE /api/donations/{id}", s.donationH.Delete)
	mux.HandleFunc("GET /api/donation-types", s.donationH.Types)

	// Report API routes
	mux.HandleFunc("GET /api/reports/summary", s.reportH.Summary)
	mux.HandleFunc("GET /api/reports/types", s.reportH.TypeStats)
	mux.HandleFunc("GET /api/reports/attention", s.reportH.Attention)
	mux.HandleFunc("GET /api/reports/recent", s.reportH.Recent)
	mux.HandleFunc("GET /api/reports/neighborhoods", s.reportH.Neighborhoods)

	// Address autofill
	mux.HandleFunc("GET /api/cep/{cep}", s.cepH.Lookup)

	// Push notification API routes
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.PublicKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)

	// Backup API routes
	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("POST /api/backups/run", s.backupH.Run)
	mux.HandleFunc("GET /api/backups/{id}/download", s.backupH.Download)

	// Real-time snapshots
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket"), s.broadcast.InitialMessages))
}
