package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/footprint/internal/database"
	"github.com/dukerupert/footprint/internal/footprint"
	"github.com/dukerupert/footprint/internal/handler"
	"github.com/dukerupert/footprint/internal/metrics"
	"github.com/dukerupert/footprint/internal/middleware"
	"github.com/dukerupert/footprint/internal/store"
	ws "github.com/dukerupert/footprint/internal/websocket"
)

const (
	computeLimit  = 10
	computeWindow = time.Minute
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	householdH  *handler.HouseholdHandler
	activityH   *handler.ActivityHandler
	footprintH  *handler.FootprintHandler
	goalH       *handler.GoalHandler
	catalogH    *handler.CatalogHandler
	metrics     *metrics.Metrics
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

// New wires the stores and handlers around engine. m may be nil, in which
// case /metrics is not served.
func New(db *sql.DB, engine *footprint.Engine, m *metrics.Metrics, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	activityStore := store.NewActivityStore(db)
	tipStore := store.NewTipStore(db)
	goalStore := store.NewGoalStore(db)
	factorStore := store.NewEmissionFactorStore(db)

	return &Server{
		db:          db,
		hub:         hub,
		householdH:  handler.NewHouseholdHandler(householdStore, userStore, hub, logger.With("component", "household")),
		activityH:   handler.NewActivityHandler(activityStore, householdStore, hub, engine.Today, logger.With("component", "activity")),
		footprintH:  handler.NewFootprintHandler(engine, hub, logger.With("component", "footprint")),
		goalH:       handler.NewGoalHandler(goalStore, tipStore, householdStore, hub, engine.Today, logger.With("component", "goal")),
		catalogH:    handler.NewCatalogHandler(tipStore, factorStore, logger.With("component", "catalog")),
		metrics:     m,
		rateLimiter: middleware.NewRateLimiter(),
		logger:      logger,
	}
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	s.registerAPIRoutes(mux)

	var h http.Handler = mux
	h = s.metrics.Middleware(h)
	return middleware.RequestLogger(s.logger.With("component", "http"))(h)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	code := http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check failed", "error", err)
		body["status"], code = "unavailable", http.StatusServiceUnavailable
	} else if v, err := database.SchemaVersion(s.db); err == nil {
		body["schema_version"] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP, computeLimit, computeWindow)(h)
}

func (s *Server) registerAPIRoutes(mux *http.ServeMux) {
	// Users and households
	mux.HandleFunc("POST /api/users", s.householdH.CreateUser)
	mux.HandleFunc("GET /api/users/{id}/households", s.householdH.ListForUser)
	mux.HandleFunc("POST /api/households", s.householdH.Create)
	mux.HandleFunc("GET /api/households/{id}", s.householdH.Get)
	mux.HandleFunc("PUT /api/households/{id}", s.householdH.Update)
	mux.HandleFunc("POST /api/households/{id}/members", s.householdH.AddMember)
	mux.HandleFunc("GET /api/households/{id}/members", s.householdH.ListMembers)

	// Activity records
	mux.HandleFunc("POST /api/households/{id}/energy", s.activityH.CreateEnergy)
	mux.HandleFunc("GET /api/households/{id}/energy", s.activityH.ListEnergy)
	mux.HandleFunc("POST /api/households/{id}/transportation", s.activityH.CreateTransportation)
	mux.HandleFunc("GET /api/households/{id}/transportation", s.activityH.ListTransportation)
	mux.HandleFunc("POST /api/households/{id}/diet", s.activityH.CreateDiet)
	mux.HandleFunc("GET /api/households/{id}/diet", s.activityH.ListDiet)

	// Footprint
	mux.Handle("POST /api/households/{id}/footprint", s.rateLimited(s.footprintH.Compute))
	mux.HandleFunc("GET /api/households/{id}/footprint", s.footprintH.Latest)
	mux.HandleFunc("GET /api/households/{id}/footprint/history", s.footprintH.History)
	mux.HandleFunc("GET /api/households/{id}/footprint/summary", s.footprintH.Summary)
	mux.HandleFunc("GET /api/households/{id}/recommendations", s.footprintH.Recommendations)
	mux.HandleFunc("GET /api/households/{id}/tips", s.footprintH.PersonalizedTips)
	mux.HandleFunc("GET /api/households/{id}/tips/{tip_id}/impact", s.footprintH.Impact)
	mux.HandleFunc("GET /api/baselines", s.footprintH.Baselines)

	// Goals
	mux.HandleFunc("POST /api/households/{id}/goals", s.goalH.Create)
	mux.HandleFunc("GET /api/households/{id}/goals", s.goalH.List)
	mux.HandleFunc("POST /api/households/{id}/goals/{goal_id}/complete", s.goalH.Complete)
	mux.HandleFunc("DELETE /api/households/{id}/goals/{goal_id}", s.goalH.Delete)

	// Catalogs
	mux.HandleFunc("GET /api/tips", s.catalogH.ListTips)
	mux.HandleFunc("GET /api/tips/{id}", s.catalogH.GetTip)
	mux.HandleFunc("GET /api/emission-factors", s.catalogH.ListFactors)
	mux.HandleFunc("POST /api/emission-factors", s.catalogH.CreateFactor)
}
