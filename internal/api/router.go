package api

import (
	"database/sql"
	"net/http"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/cyberthreat-atlas/atlas/internal/auth"
	"github.com/cyberthreat-atlas/atlas/internal/config"
	"github.com/cyberthreat-atlas/atlas/internal/database"
	"github.com/cyberthreat-atlas/atlas/internal/metrics"
)

// NewRouter wires every API route. Reads are public; writes require a Bearer
// token. The metrics endpoint lives outside the versioned API prefix.
func NewRouter(db *sql.DB, cfg config.Config, collector *metrics.HTTPCollector, logger *slog.Logger) http.Handler {
	groupHandler := NewAttackGroupHandler(database.NewAttackGroupRepository(db), logger)
	campaignHandler := NewCampaignHandler(database.NewCampaignRepository(db), logger)
	techniqueHandler := NewTechniqueHandler(database.NewTechniqueRepository(db), logger)
	malwareHandler := NewMalwareHandler(database.NewMalwareRepository(db), logger)
	indicatorHandler := NewIndicatorHandler(database.NewIndicatorRepository(db), logger)
	regionHandler := NewRegionHandler(database.NewRegionRepository(db), logger)
	sectorHandler := NewSectorHandler(database.NewSectorRepository(db), logger)
	authHandler := NewAuthHandler(database.NewUserRepository(db), cfg.Auth, logger)
	healthHandler := NewHealthHandler(db, logger)

	protect := auth.Middleware(cfg.Auth.JWTSecret)

	r := mux.NewRouter()
	r.Use(corsMiddleware)
	if collector != nil {
		r.Use(collector.InstrumentHandler)
		r.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	r.HandleFunc("/", healthHandler.Info).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.Handle("/auth/me", protect(http.HandlerFunc(authHandler.Me))).Methods(http.MethodGet)
	api.Handle("/auth/change-password", protect(http.HandlerFunc(authHandler.ChangePassword))).Methods(http.MethodPut)

	type routes struct {
		prefix string
		list   http.HandlerFunc
		get    http.HandlerFunc
		create http.HandlerFunc
		update http.HandlerFunc
		remove http.HandlerFunc
		search http.HandlerFunc
	}

	// The timeline route registers before the {id} route so "timeline" is not
	// swallowed as an identifier.
	api.HandleFunc("/campaigns/timeline", campaignHandler.GetTimeline).Methods(http.MethodGet)

	for _, e := range []routes{
		{"/attack-groups", groupHandler.List, groupHandler.Get, groupHandler.Create, groupHandler.Update, groupHandler.Delete, groupHandler.Search},
		{"/campaigns", campaignHandler.List, campaignHandler.Get, campaignHandler.Create, campaignHandler.Update, campaignHandler.Delete, campaignHandler.Search},
		{"/techniques", techniqueHandler.List, techniqueHandler.Get, techniqueHandler.Create, techniqueHandler.Update, techniqueHandler.Delete, techniqueHandler.Search},
		{"/malware", malwareHandler.List, malwareHandler.Get, malwareHandler.Create, malwareHandler.Update, malwareHandler.Delete, malwareHandler.Search},
		{"/indicators", indicatorHandler.List, indicatorHandler.Get, indicatorHandler.Create, indicatorHandler.Update, indicatorHandler.Delete, indicatorHandler.Search},
		{"/regions", regionHandler.List, regionHandler.Get, regionHandler.Create, regionHandler.Update, regionHandler.Delete, regionHandler.Search},
		{"/sectors", sectorHandler.List, sectorHandler.Get, sectorHandler.Create, sectorHandler.Update, sectorHandler.Delete, sectorHandler.Search},
	} {
		api.HandleFunc(e.prefix, e.list).Methods(http.MethodGet)
		api.HandleFunc(e.prefix+"/search", e.search).Methods(http.MethodPost)
		api.HandleFunc(e.prefix+"/{id}", e.get).Methods(http.MethodGet)
		api.Handle(e.prefix, protect(e.create)).Methods(http.MethodPost)
		api.Handle(e.prefix+"/{id}", protect(e.update)).Methods(http.MethodPut)
		api.Handle(e.prefix+"/{id}", protect(e.remove)).Methods(http.MethodDelete)
	}

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
