// Package server exposes the TUI over SSH. Every session renders its own
// components; all of them subscribe to the same theme hub, so a theme change
// reaches every connected terminal.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	bm "github.com/charmbracelet/wish/bubbletea"
	"github.com/muesli/termenv"

	"github.com/jmylchreest/umbra/internal/tui"
)

// ColorProfile is the minimum colour profile sessions are rendered with.
const ColorProfile = termenv.ANSI256

// Config holds the listener settings.
type Config struct {
	Address     string
	HostKeyPath string
	IdleTimeout time.Duration
	// MaxSessions caps concurrent sessions; zero means unlimited.
	MaxSessions int
}

// Server wires config, middleware and the wish SSH server.
type Server struct {
	cfg    Config
	opts   tui.Options
	logger *slog.Logger

	srv    *ssh.Server
	active atomic.Int64
}

// New creates a server whose sessions run tui models built from opts.
func New(cfg Config, opts tui.Options, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Address == "" {
		return nil, errors.New("server: address is required")
	}

	s := &Server{cfg: cfg, opts: opts, logger: logger}

	// The shared sheet is compiled against the default renderer; make sure it
	// emits colour even when the server itself has no terminal.
	lipgloss.SetColorProfile(ColorProfile)

	// wish runs the last middleware first.
	srv, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(cfg.HostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bm.MiddlewareWithColorProfile(s.handler, ColorProfile),
			activeterm.Middleware(),
			s.limitSessions(),
			s.logSessions(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	s.srv = srv
	return s, nil
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.srv.Addr
}

// Sessions returns the number of sessions currently running.
func (s *Server) Sessions() int {
	return int(s.active.Load())
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("ssh server shutdown", "error", err)
		}
	}()

	s.logger.Info("starting ssh server",
		"address", s.cfg.Address,
		"host_key_path", s.cfg.HostKeyPath,
		"idle_timeout", s.cfg.IdleTimeout,
		"max_sessions", s.cfg.MaxSessions,
	)
	err := s.srv.ListenAndServe()
	if err == nil || errors.Is(err, ssh.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("server: %w", err)
}

// handler builds a fresh model per session and disconnects its components
// when the session ends, however it ends.
func (s *Server) handler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	m := s.newModel()
	go func() {
		<-sess.Context().Done()
		m.Close()
	}()
	return m, []tea.ProgramOption{tea.WithAltScreen()}
}

func (s *Server) newModel() tui.Model {
	opts := s.opts
	opts.Logger = s.logger
	return tui.New(opts)
}

// limitSessions refuses sessions beyond MaxSessions.
func (s *Server) limitSessions() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			n := s.active.Add(1)
			defer s.active.Add(-1)

			if s.cfg.MaxSessions > 0 && n > int64(s.cfg.MaxSessions) {
				s.logger.Warn("session limit reached",
					"remote_ip", remoteIP(sess),
					"max_sessions", s.cfg.MaxSessions)
				_, _ = sess.Write([]byte("too many sessions, try again later\n"))
				return
			}
			next(sess)
		}
	}
}

// logSessions logs session start and end with slog.
func (s *Server) logSessions() wish.Middleware {
	return func(next ssh.Handler) ssh.Handler {
		return func(sess ssh.Session) {
			start := time.Now()
			s.logger.Info("session started", "user", sess.User(), "remote_ip", remoteIP(sess))
			next(sess)
			s.logger.Info("session ended",
				"user", sess.User(),
				"remote_ip", remoteIP(sess),
				"duration", time.Since(start).Round(time.Millisecond))
		}
	}
}

func remoteIP(sess ssh.Session) string {
	remote := sess.RemoteAddr()
	if remote == nil {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(remote.String())
	if err != nil {
		return remote.String()
	}
	return host
}
