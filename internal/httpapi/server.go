// Package httpapi wires the core operations to routes. Handlers resolve the
// caller, build one request-scoped sheet cache, run the engine or report,
// and serve the rendered text; all real logic lives below this layer.
package httpapi

import (
	"net/http"
	"time"

	"lockerd/internal/app"
	"lockerd/internal/auth"
	"lockerd/internal/inventory"
	"lockerd/internal/rental"
	"lockerd/internal/reports"
	"lockerd/internal/sheets"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// Server holds the long-lived collaborators the handlers share.
type Server struct {
	cfg      app.Config
	svc      *sheets.Client
	auth     *auth.Manager
	engine   *rental.Engine
	snapshot *inventory.Snapshot
}

func New(cfg app.Config, svc *sheets.Client, authMgr *auth.Manager, engine *rental.Engine, snapshot *inventory.Snapshot) *Server {
	return &Server{
		cfg:      cfg,
		svc:      svc,
		auth:     authMgr,
		engine:   engine,
		snapshot: snapshot,
	}
}

// Router builds the route table. Paths map 1:1 to core operations.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept"},
	}))

	r.Get("/", s.index)
	r.Route("/student", func(r chi.Router) {
		r.Get("/register", s.auth.RequireCapability(s.studentRegister, capUser))
		r.Get("/availablelockers", s.availableLockers)
		r.Get("/signup", s.auth.RequireCapability(s.studentSignup, capUser))
		r.Get("/rentalocker", s.auth.RequireCapability(s.rentALocker, capUser))
	})
	r.Route("/admin", func(r chi.Router) {
		r.Get("/invoicestosend", s.auth.RequireCapability(s.invoicesToSend, capEditor))
		r.Get("/lockerqueue", s.auth.RequireCapability(s.lockerQueue, capEditor))
		r.Get("/lockertenants", s.auth.RequireCapability(s.lockerTenants, capEditor))
	})
	r.Get("/oauth2callback", s.auth.HandleCallback)

	return r
}

// requestLogger emits one structured event per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// reportsConfig projects the app config onto the reports package.
func (s *Server) reportsConfig() reports.Config {
	return reports.Config{
		ContactSheet: s.cfg.ContactSheet,
		RequestSheet: s.cfg.RequestSheet,
		LedgerSheet:  s.cfg.LedgerSheet,
		ContactTTL:   s.cfg.ContactTTL,
		RequestTTL:   s.cfg.RequestTTL,
		LedgerTTL:    s.cfg.LedgerTTL,
	}
}
