package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/docscan/internal/api/models"
	"github.com/smazurov/docscan/internal/events"
	"github.com/smazurov/docscan/internal/intake"
	"github.com/smazurov/docscan/internal/led"
	"github.com/smazurov/docscan/internal/logging"
	"github.com/smazurov/docscan/internal/scanner"
	"github.com/smazurov/docscan/internal/streaming"
	"github.com/smazurov/docscan/internal/version"
	"github.com/smazurov/docscan/ui"
)

// Server represents the Huma v2 API server
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	pipeline   *scanner.Pipeline
	eventBus   *events.Bus
	options    *Options
	logger     *slog.Logger
}

// Options represents the main application options (imported from main package)
type Options struct {
	Pipeline          *scanner.Pipeline
	EventBus          *events.Bus
	NavigateDelay     time.Duration
	PrometheusHandler http.Handler   // Optional Prometheus metrics handler
	LEDController     led.Controller // Optional, enables /api/leds
	Intake            *intake.Store  // Optional reference save endpoint
	Preview           *streaming.Manager
}

// NewServer creates a new API server with Huma v2 using Go 1.22+ native routing
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	corsConfig := DefaultCORSConfig()
	AddCORSHandler(mux, corsConfig)

	config := huma.DefaultConfig("docscan API", "1.0.0")
	config.Info.Description = "Document camera capture, enhancement and upload"
	// Empty servers list will make OpenAPI use relative paths, working with any host
	config.Servers = []*huma.Server{}

	api := humago.New(mux, config)

	server := &Server{
		api:      api,
		mux:      mux,
		pipeline: opts.Pipeline,
		eventBus: opts.EventBus,
		options:  opts,
		logger:   logging.GetLogger("api"),
	}

	api.UseMiddleware(NewCORSMiddleware(corsConfig))
	api.UseMiddleware(HTTPLoggingMiddleware)

	// Registered before the UI catch-all
	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()

	if opts.Intake != nil {
		intake.Register(api, opts.Intake)
		server.logger.Info("Reference save endpoint enabled", "path", intake.Path)
	}

	if opts.Preview != nil {
		streaming.RegisterWebRTCAPI(api, opts.Preview)
		server.logger.Info("WebRTC live view enabled", "path", streaming.WebRTCPath)
	}

	if frontendHandler, err := ui.Handler(); err == nil {
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api") {
				http.NotFound(w, r)
				return
			}
			frontendHandler.ServeHTTP(w, r)
		})
	}

	return server
}

// GetMux returns the underlying HTTP ServeMux for additional setup
func (s *Server) GetMux() *http.ServeMux {
	return s.mux
}

// GetAPI returns the Huma API instance
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start starts the HTTP server on the specified address
func (s *Server) Start(addr string) error {
	s.logger.Info("Starting docscan API server", "addr", addr)
	s.logger.Info("OpenAPI documentation available", "url", "http://"+addr+"/docs")

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

// Stop shuts the server down. Open SSE connections are closed immediately.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")

	if s.httpServer != nil {
		return s.httpServer.Close()
	}

	return nil
}

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
	}, func(ctx context.Context, input *struct{}) (*models.VersionResponse, error) {
		return &models.VersionResponse{Body: version.Get()}, nil
	})

	s.registerScannerRoutes()
	s.registerSSERoutes()
	s.registerLogRoutes()
	s.registerLEDRoutes()
}
