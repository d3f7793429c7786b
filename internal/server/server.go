package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"energy-dashboard/internal/auth"
	"energy-dashboard/internal/config"
	"energy-dashboard/internal/monitor"
)

const (
	loginPath    = "/user"
	authEndpoint = "/api/auth"

	// grpcServiceName is reported alongside the overall ("") service
	grpcServiceName = "energy-dashboard.Auth"

	shutdownTimeout = 5 * time.Second
)

type Server struct {
	config    *config.Config
	verifier  auth.Verifier
	signer    auth.Signer
	monitor   *monitor.Monitor
	templates map[string]*template.Template
	health    *health.Server
	logger    *log.Logger
}

// Option customizes a Server built by New
type Option func(*Server)

// WithVerifier replaces the credential check
func WithVerifier(v auth.Verifier) Option {
	return func(s *Server) { s.verifier = v }
}

// WithSigner replaces token issuance
func WithSigner(signer auth.Signer) Option {
	return func(s *Server) { s.signer = signer }
}

// WithLogger replaces the logger used for request and auth logging
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func New(cfg *config.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Server{
		config:    cfg,
		verifier:  auth.NewStaticVerifier(cfg.Credentials.Username, cfg.Credentials.Password),
		monitor:   monitor.New(cfg),
		templates: make(map[string]*template.Template),
		health:    health.NewServer(),
		logger:    log.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.signer == nil {
		signer, err := newSigner(cfg)
		if err != nil {
			return nil, err
		}
		s.signer = signer
	}

	s.monitor.SetLogger(s.logger)
	s.parseTemplates()

	return s, nil
}

func newSigner(cfg *config.Config) (auth.Signer, error) {
	switch cfg.Token.Signer {
	case config.SignerJWT:
		ttl := time.Duration(cfg.Token.TTLSeconds) * time.Second
		return auth.NewJWTSigner(cfg.Token.Secret, ttl, "energy-dashboard")
	default:
		return auth.NewDevSigner(), nil
	}
}

func (s *Server) parseTemplates() {
	s.templates["login"] = template.Must(template.New("login").Parse(loginTemplate))
	s.templates["sites"] = template.Must(template.New("sites").Parse(sitesTemplate))
}

// Monitor exposes the upstream health monitor
func (s *Server) Monitor() *monitor.Monitor {
	return s.monitor
}

// Handler returns the HTTP handler with all routes and middleware
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Route setup

func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMiddleware, s.recoverMiddleware)

	r.HandleFunc(authEndpoint, s.handleAuth).Methods(http.MethodPost)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)

	r.HandleFunc(loginPath, s.handleLogin).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(s.config.PostLoginPath, s.handleSites).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet, http.MethodHead)

	return r
}

// newGRPCServer builds the gRPC server carrying only the standard health service
func (s *Server) newGRPCServer() *grpc.Server {
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, s.health)
	return gs
}

func (s *Server) setServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(grpcServiceName, status)
}

// Run serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	s.logger.Println("========================================")
	s.logger.Println("Energy Dashboard")
	s.logger.Println("========================================")
	s.logger.Printf("Listening on %s", s.config.ListenAddr)
	s.logger.Printf("Login page: %s", loginPath)
	s.logger.Printf("InfluxDB health target: %s (advisory, %v timeout)", s.monitor.Target(), s.monitor.Timeout())

	httpServer := &http.Server{
		Addr:              s.config.ListenAddr,
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 2)

	var grpcServer *grpc.Server
	if s.config.GRPCListenAddr != "" {
		lis, err := net.Listen("tcp", s.config.GRPCListenAddr)
		if err != nil {
			return fmt.Errorf("listening for gRPC on %s: %w", s.config.GRPCListenAddr, err)
		}
		grpcServer = s.newGRPCServer()
		s.logger.Printf("[gRPC] health service on %s", s.config.GRPCListenAddr)
		go func() {
			if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	s.monitor.Start()
	s.setServing(true)
	s.logger.Println("========================================")

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Println("Shutting down")
	case runErr = <-errCh:
	}

	s.setServing(false)
	s.health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("http shutdown: %w", err)
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}

	s.monitor.Stop()
	s.monitor.Wait()

	return runErr
}
