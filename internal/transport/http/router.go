package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"databoard/internal/config"
	apierrors "databoard/internal/errors"
	custommw "databoard/internal/middleware"
	ws "databoard/internal/websocket"
)

// RouterDeps carries everything the router mounts.
type RouterDeps struct {
	Config       *config.Config
	Logger       *slog.Logger
	ErrorHandler *apierrors.ErrorHandler
	Board        *BoardHandler
	Health       *HealthHandler
	Hub          *ws.Hub

	// Registry is the Prometheus registry backing /metrics; nil disables
	// the endpoint.
	Registry *prometheus.Registry
}

// NewRouter assembles the chi router: middleware chain, API subtrees,
// metrics exposition, and the WebSocket upgrade.
func NewRouter(deps RouterDeps) chi.Router {
	cfg := deps.Config
	logger := deps.Logger

	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)
	r.Use(custommw.StructuredLogger(logger))
	r.Use(custommw.Recoverer(logger))
	r.Use(custommw.SecurityHeaders)
	r.Use(custommw.Compress(5))

	if cfg.Security.EnableCORS {
		r.Use(custommw.CORS(custommw.CORSConfig{
			AllowedOrigins: cfg.Security.AllowedOrigins,
			Logger:         logger,
		}))
	}

	if cfg.Security.RateLimit.Enabled {
		limiter := custommw.NewRateLimiter(
			cfg.Security.RateLimit.RPS,
			cfg.Security.RateLimit.Burst,
			logger,
		)
		r.Use(limiter.Handler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(custommw.Timeout(cfg.Server.RequestTimeout, logger))

		api.Mount("/ridership", deps.Board.RidershipRoutes())
		api.Mount("/menu", deps.Board.MenuRoutes())
		api.Mount("/health", deps.Health.Routes())
		api.Get("/version", Version)
	})

	if deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	if deps.Hub != nil {
		upgrader := ws.NewUpgrader(cfg.Security.AllowedOrigins)
		r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
			ws.ServeWS(deps.Hub, upgrader, w, req)
		})
	}

	r.NotFound(deps.ErrorHandler.NotFound)
	r.MethodNotAllowed(deps.ErrorHandler.MethodNotAllowed)

	return r
}
