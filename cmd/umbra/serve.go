package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/umbra/internal/server"
)

var serveOpts struct {
	address string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the TUI over SSH",
	Long: `Run an SSH server that gives every connecting terminal its own TUI.

All sessions share one theme hub: a theme change, whether from 'umbra set',
the OS preference or a 't' press in any session, re-renders every session.

Connect with:
  ssh -p 23234 localhost`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveOpts.address, "address", "",
		"Listen address (default from config: 127.0.0.1:23234)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := getConfig()
	a, err := openApp(ctx, c, logger, appOptions{follow: true})
	if err != nil {
		return err
	}
	defer a.Close()

	hostKey, err := c.HostKeyPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(hostKey), 0o700); err != nil {
		return fmt.Errorf("failed to create host key directory: %w", err)
	}
	address := c.Serve.Address
	if serveOpts.address != "" {
		address = serveOpts.address
	}

	srv, err := server.New(server.Config{
		Address:     address,
		HostKeyPath: hostKey,
		IdleTimeout: c.Serve.IdleTimeout.Duration(),
		MaxSessions: c.Serve.MaxSessions,
	}, a.tuiOptions(), logger)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}
