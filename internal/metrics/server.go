package metrics

import (
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/db2fs/db2fs/internal/logger"
	accesslog "github.com/db2fs/db2fs/internal/logger/adapter/fiber"
)

const (
	checkAliveURI   = "/checkalive"
	shutdownTimeout = 5 * time.Second
)

// Server exposes /metrics and /checkalive while a migration runs.
type Server struct {
	app  *fiber.App
	addr string
	ln   net.Listener
	done chan error
}

// NewServer creates the endpoint, Start has to be called to listen on addr.
func NewServer(addr string, logCfg logger.Log) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               logCfg.AppName,
	})

	app.Use(accesslog.New(accesslog.Config{
		Config:   logCfg,
		SkipURIs: []string{checkAliveURI},
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get(checkAliveURI, func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	return &Server{
		app:  app,
		addr: addr,
		done: make(chan error, 1),
	}
}

// Start binds addr and serves in the background.
// The port is bound before Start returns, so Shutdown always finds the listener.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", s.addr)
	}

	s.ln = ln

	log.Info().Str("addr", ln.Addr().String()).Msg("metrics endpoint listening")

	go func() {
		s.done <- s.app.Listener(ln)
	}()

	return nil
}

// Addr returns the bound address, empty before Start.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}

	return s.ln.Addr().String()
}

// Shutdown stops the listener and waits for the serving goroutine.
func (s *Server) Shutdown() error {
	if s.ln == nil {
		return nil
	}

	if err := s.app.Shutdown(); err != nil {
		return errors.Wrap(err, "failed to shut down metrics endpoint")
	}

	// fiber only knows the listener once it serves, closing it here ends a Listener call that starts late
	if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return errors.Wrap(err, "failed to close metrics listener")
	}

	select {
	case err := <-s.done:
		if err != nil && !errors.Is(err, net.ErrClosed) {
			return errors.Wrap(err, "metrics endpoint")
		}

		return nil
	case <-time.After(shutdownTimeout):
		return ErrShutdownTimeout
	}
}
