package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/umbra/internal/component"
	"github.com/jmylchreest/umbra/internal/source"
)

var watchOpts struct {
	format string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the theme every time it changes",
	Long: `Subscribe to the theme and print a line for the initial value and for
every change, until interrupted.

Formats:
  plain   time, theme and how long the previous theme lasted (default)
  json    one JSON object per line`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOpts.format, "format", "f", "plain",
		"Output format (plain, json)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, getConfig(), logger, appOptions{follow: true})
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := newChangePrinter(os.Stdout, watchOpts.format, a.source.Inputs)
	if err != nil {
		return err
	}

	var sub component.ThemeSubscription
	sub.Attach(a.hub, p.print)
	defer sub.Detach()

	<-ctx.Done()
	return nil
}

// watchEvent is the JSON shape of one watch line.
type watchEvent struct {
	Time   time.Time     `json:"time"`
	Theme  string        `json:"theme"`
	Inputs source.Inputs `json:"inputs"`
}

// changePrinter writes one line per delivered value.
type changePrinter struct {
	mu     sync.Mutex
	w      io.Writer
	format string
	inputs func() source.Inputs
	now    func() time.Time
	last   time.Time
}

func newChangePrinter(w io.Writer, format string, inputs func() source.Inputs) (*changePrinter, error) {
	format = strings.ToLower(format)
	switch format {
	case "", "plain":
		format = "plain"
	case "json":
	default:
		return nil, fmt.Errorf("unknown format %q (want plain or json)", format)
	}
	return &changePrinter{w: w, format: format, inputs: inputs, now: time.Now}, nil
}

func (p *changePrinter) print(dark bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	defer func() { p.last = now }()

	if p.format == "json" {
		ev := watchEvent{Time: now, Theme: themeName(dark)}
		if p.inputs != nil {
			ev.Inputs = p.inputs()
		}
		if err := json.NewEncoder(p.w).Encode(ev); err != nil {
			logger.Warn("failed to write watch event", "error", err)
		}
		return
	}

	line := fmt.Sprintf("%s  %s", now.Format(time.TimeOnly), themeName(dark))
	if !p.last.IsZero() {
		line += fmt.Sprintf("  (%s after %s)", themeName(!dark),
			strings.TrimSpace(humanize.RelTime(p.last, now, "", "")))
	}
	fmt.Fprintln(p.w, line)
}
