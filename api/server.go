// Package api exposes a Vault over HTTP with fiber.
//
// Mutating requests carry an API key as an Authorization bearer token,
// resolved to the caller identity by an Authenticator. The host clock
// supplies the call time. Failures are written as {"reason", "error"} JSON.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/xraph/vesting"
)

// CallerHeader carries the caller identity when the server is configured
// with WithTrustedCallerHeader, e.g. behind an authenticating proxy.
const CallerHeader = "X-Caller-Id"

// Default paging for list endpoints.
const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Server serves the vault routes.
type Server struct {
	vault    *vesting.Vault
	app      *fiber.App
	logger   *slog.Logger
	basePath string
	clock    func() time.Time

	auth        Authenticator
	trustHeader bool
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithBasePath mounts the routes below path (e.g. "/vesting").
func WithBasePath(path string) Option {
	return func(s *Server) { s.basePath = path }
}

// WithClock overrides the clock used to stamp calls.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) { s.clock = clock }
}

// WithAuthenticator requires every mutating request to present a bearer
// key that a resolves to a caller identity. Reads stay public.
func WithAuthenticator(a Authenticator) Option {
	return func(s *Server) { s.auth = a }
}

// WithTrustedCallerHeader takes the caller identity from CallerHeader when
// no key was presented. Only for hosts behind a proxy that sets the header
// itself, or for local development.
func WithTrustedCallerHeader() Option {
	return func(s *Server) { s.trustHeader = true }
}

// New builds the fiber app for v. Without WithAuthenticator or
// WithTrustedCallerHeader every mutating request is rejected.
func New(v *vesting.Vault, opts ...Option) *Server {
	s := &Server{
		vault:  v,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "vesting " + vesting.Version,
		ErrorHandler:          s.handleError,
		DisableStartupMessage: true,
	})
	s.routes()
	return s
}

// App returns the underlying fiber app, e.g. for app.Test.
func (s *Server) App() *fiber.App { return s.app }

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("api listening", "addr", addr, "base_path", s.basePath)
	if err := s.app.Listen(addr); err != nil {
		return fmt.Errorf("api: listen %s: %w", addr, err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) routes() {
	root := s.app.Group(s.basePath)

	root.Get("/health", s.health)

	v1 := root.Group("/v1")
	if s.auth != nil {
		v1.Use(s.authenticate())
	}
	v1.Post("/init", s.initVault)
	v1.Post("/claims", s.claim)
	v1.Get("/claims", s.listClaims)
	v1.Post("/payments", s.payment)
	v1.Post("/schedules", s.setSchedule)
	v1.Get("/schedules", s.listSchedules)
	v1.Get("/schedules/:beneficiary", s.getSchedule)
	v1.Delete("/schedules/:beneficiary", s.removeSchedule)
	v1.Post("/deposits", s.deposit)
	v1.Post("/administrator", s.setAdministrator)
	v1.Get("/pool", s.poolSummary)
}

// env builds the call environment from the request.
func (s *Server) env(c *fiber.Ctx) vesting.Env {
	now := s.vault.Now()
	if s.clock != nil {
		now = vesting.FromTime(s.clock())
	}
	return vesting.Env{Caller: s.caller(c), Now: now}
}
