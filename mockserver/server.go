package mockserver

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/oraichain/duckdb-http/version"
)

// Options configure the mock endpoint.
type Options struct {
	// Port is the listen port used by Start when none is passed.
	Port string

	// APIKey, when set, is required in the X-API-Key header of every
	// statement request.
	APIKey string

	// Shape selects the response encoding, canonical when empty.
	Shape Shape

	// Version is what SELECT version() reports.
	Version string

	// Prefork enables Fiber's prefork mode. Keep it off under tests.
	Prefork bool

	// Catalog holds the fixture tables. Nil selects DemoCatalog.
	Catalog *Catalog

	// Logger receives lifecycle events. Nil disables them.
	Logger *zap.Logger
}

// Server is a Fiber application emulating the DuckDB HTTP extension.
type Server struct {
	app    *fiber.App
	opts   Options
	engine *engine
	log    *zap.Logger
}

// NewServer initializes the Fiber instance and its routes.
func NewServer(opts Options) *Server {
	if opts.Catalog == nil {
		opts.Catalog = DemoCatalog()
	}
	if opts.Version == "" {
		opts.Version = "v1.2.1-mock"
	}
	if opts.Shape == "" {
		opts.Shape = ShapeCanonical
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		IdleTimeout:  10 * time.Second,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		Prefork:      opts.Prefork,
	})

	// Middleware
	app.Use(recover.New()) // Auto-recovers from panics
	app.Use(logger.New())  // Logs all requests

	s := &Server{
		app:    app,
		opts:   opts,
		engine: newEngine(opts.Catalog, opts.Version),
		log:    log,
	}

	// The extension's reachability probe.
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "duckdb-http mock endpoint",
			"version": version.GetVersion(),
			"build":   version.GetBuildDate(),
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	// One POST per statement, SQL as the raw body.
	app.Post("/", s.handleStatement)

	return s
}

func (s *Server) handleStatement(c *fiber.Ctx) error {
	if s.opts.APIKey != "" && c.Get("X-API-Key") != s.opts.APIKey {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized: invalid or missing API key",
		})
	}

	rs, err := s.engine.Execute(string(c.Body()))
	if err != nil {
		var qe *queryError
		if errors.As(err, &qe) {
			return c.Status(qe.status).JSON(fiber.Map{"error": qe.message})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	body, contentType, err := encodeResult(s.opts.Shape, rs)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(body)
}

// GetApp exposes the Fiber app, mainly for in-process tests.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Start runs the server and blocks until an interrupt arrives or the
// listener fails, then shuts down gracefully.
func (s *Server) Start(port string) error {
	if port == "" {
		port = s.opts.Port
	}
	if port == "" {
		port = "3000" // Default port
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	defer signal.Stop(quit)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("mock endpoint listening", zap.String("port", port))
		errCh <- s.app.Listen(":" + port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	s.log.Info("shutdown signal received, stopping mock endpoint")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}

// Shutdown stops the server without waiting for a signal.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
