package api

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"customerdash/backend/handlers"
	"customerdash/backend/metrics"
	"customerdash/backend/middleware"
	"customerdash/backend/services"
	"customerdash/backend/store"
)

// Deps carries everything the HTTP surface is built from.
type Deps struct {
	Store          *store.Store
	Imports        *services.ImportService
	Filters        *services.FilterService
	Auth           *middleware.Authenticator
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Logger         *zap.Logger
	AllowedOrigins []string
	Development    bool
	MaxUploadBytes int64
	Now            func() time.Time
	// StaticDir, when set, serves the built frontend with an index.html
	// fallback for client-side routes.
	StaticDir string
}

// Server represents the API server
type Server struct {
	router *mux.Router
	cors   func(http.Handler) http.Handler
}

// NewServer creates a new API server
func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Auth == nil {
		d.Auth = middleware.NewAuthenticator(nil, d.Logger)
	}
	s := &Server{
		router: mux.NewRouter(),
		cors:   middleware.CORS(d.AllowedOrigins, d.Development, d.Logger),
	}
	s.router.Use(middleware.Instrument(d.Logger, d.Metrics))

	// Register every route at the root and under /api so the frontend can
	// use either prefix.
	registerRoutes(s.router.PathPrefix("/api").Subrouter(), d)
	registerRoutes(s.router, d)
	if d.StaticDir != "" {
		serveFrontend(s.router, d.StaticDir)
	}
	return s
}

func serveFrontend(r *mux.Router, dir string) {
	fs := http.FileServer(http.Dir(dir))
	r.PathPrefix("/assets/").Handler(fs)
	index := filepath.Join(dir, "index.html")
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, index)
	}).Methods(http.MethodGet)
}

func registerRoutes(r *mux.Router, d Deps) {
	customers := handlers.NewCustomerHandler(d.Store, d.Filters, d.Logger)
	reports := handlers.NewReportHandler(d.Store, d.Filters, d.Now, d.Logger)
	imports := handlers.NewImportHandler(d.Imports, d.MaxUploadBytes, d.Logger)
	filters := handlers.NewFilterHandler(d.Filters, d.Logger)

	// Public routes
	r.HandleFunc("/health", handlers.Health(d.Store)).Methods(http.MethodGet)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	protected := r.PathPrefix("").Subrouter()
	protected.Use(d.Auth.Middleware)
	protected.Use(middleware.RequireWriteForMutations)

	protected.HandleFunc("/customers", customers.List).Methods(http.MethodGet)
	protected.HandleFunc("/customers", customers.Add).Methods(http.MethodPost)
	protected.HandleFunc("/customers", customers.RemoveMany).Methods(http.MethodDelete)
	protected.HandleFunc("/customers/search", customers.Search).Methods(http.MethodPost)
	protected.HandleFunc("/customers/batch", customers.AddBatch).Methods(http.MethodPost)
	protected.HandleFunc("/customers/{id}", customers.Get).Methods(http.MethodGet)
	protected.HandleFunc("/customers/{id}", customers.Edit).Methods(http.MethodPut, http.MethodPatch)
	protected.HandleFunc("/customers/{id}", customers.Remove).Methods(http.MethodDelete)
	protected.HandleFunc("/customers/{id}/copy", customers.Copy).Methods(http.MethodPost)

	protected.HandleFunc("/reports/summary", reports.Summary).Methods(http.MethodGet)
	protected.HandleFunc("/reports/group-count", reports.GroupCount).Methods(http.MethodGet)
	protected.HandleFunc("/reports/group-median", reports.GroupMedian).Methods(http.MethodGet)
	protected.HandleFunc("/reports/group-max", reports.GroupMax).Methods(http.MethodGet)
	protected.HandleFunc("/reports/marital-split", reports.MaritalSplit).Methods(http.MethodGet)

	if d.Imports != nil {
		protected.HandleFunc("/imports", imports.Upload).Methods(http.MethodPost)
		protected.HandleFunc("/imports/files", imports.Files).Methods(http.MethodGet)
	}

	if d.Filters != nil {
		protected.HandleFunc("/filters", filters.List).Methods(http.MethodGet)
		protected.HandleFunc("/filters", filters.Create).Methods(http.MethodPost)
		protected.HandleFunc("/filters/default", filters.Default).Methods(http.MethodGet)
		protected.HandleFunc("/filters/{id}", filters.Get).Methods(http.MethodGet)
		protected.HandleFunc("/filters/{id}", filters.Update).Methods(http.MethodPut)
		protected.HandleFunc("/filters/{id}", filters.Delete).Methods(http.MethodDelete)
	}
}

// Handler returns the HTTP handler for the API server. CORS wraps the
// router so preflight requests are answered before route matching.
func (s *Server) Handler() http.Handler {
	return s.cors(s.router)
}
