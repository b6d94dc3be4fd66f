package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"society/internal/auth"
	"society/internal/log"
	"society/internal/metrics"
	"society/internal/middleware/ratelimit"
	"society/internal/middleware/security"
	"society/internal/middleware/trace"
	"society/internal/services"
	appweb "society/web"
)

// Deps are the collaborators of the HTTP server. Metrics, Limiter and Ready
// may be nil.
type Deps struct {
	Settlements *services.SettlementService
	Dashboard   *services.DashboardService
	Auth        *auth.Middleware
	Metrics     *metrics.Metrics
	Limiter     *ratelimit.Limiter
	Detector    *security.Detector
	Logger      *log.Logger
	Ready       func(context.Context) error
	Now         func() time.Time
}

type Server struct {
	http.Server
	templates   *template.Template
	settlements *services.SettlementService
	dashboard   *services.DashboardService
	metrics     *metrics.Metrics
	limiter     *ratelimit.Limiter
	ready       func(context.Context) error
	now         func() time.Time

	shutdownOnce sync.Once
}

// PublicPaths skip authentication.
var PublicPaths = []string{"/", "/healthz", "/readyz", "/metrics"}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Detector == nil {
		deps.Detector = security.NewDetector()
	}
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}

	mux := http.NewServeMux()
	s := &Server{
		settlements: deps.Settlements,
		dashboard:   deps.Dashboard,
		metrics:     deps.Metrics,
		limiter:     deps.Limiter,
		ready:       deps.Ready,
		now:         deps.Now,
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("GET /api/v1/me/maintenance", s.handleMyMaintenance)
	mux.HandleFunc("GET /api/v1/me/expenses", s.handleMyExpenses)
	mux.HandleFunc("GET /api/v1/admin/overview", s.handleAdminOverview)
	mux.HandleFunc("GET /api/v1/admin/revenue", s.handleAdminRevenue)

	mux.HandleFunc("GET /api/v1/settlements", s.handleSettlements)
	mux.HandleFunc("POST /api/v1/settlements/select", s.handleSelect)
	mux.HandleFunc("POST /api/v1/settlements/validate", s.handleValidate)
	mux.HandleFunc("POST /api/v1/settlements/approve", s.handleApprove)
	mux.HandleFunc("POST /api/v1/settlements/reimburse", s.handleReimburse)
	mux.HandleFunc("POST /api/v1/settlements/batches", s.handleGenerateBatch)
	mux.HandleFunc("GET /api/v1/settlements/batches", s.handleBatches)
	mux.HandleFunc("POST /api/v1/settlements/batches/{id}/status", s.handleAdvanceBatch)
	for _, f := range exportFormats {
		mux.HandleFunc("GET /api/v1/settlements/batches/{id}/export."+string(f), s.handleExport(f))
	}

	var h http.Handler = trace.Route(mux)
	if deps.Auth != nil {
		h = deps.Auth.Wrap(h)
	}
	if s.limiter != nil {
		h = s.limiter.Middleware(deps.Detector.ExtractClientIP, isWrite)(h)
	}
	h = deps.Detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = trace.NewMiddleware(deps.Logger, deps.Detector.ExtractClientIP, s.metrics).Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// isWrite limits only the state-changing settlement actions.
func isWrite(r *http.Request) bool {
	return r.Method == http.MethodPost
}

// Shutdown gracefully shuts down the server and the limiter cleanup.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	now := s.now()
	data := struct {
		Year     int
		Month    int
		MonthKey string
	}{
		Year:     now.Year(),
		Month:    int(now.Month()),
		MonthKey: now.Format("2006-01"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "dashboard.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "dashboard.html")
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
