package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/umbra/internal/component"
	"github.com/jmylchreest/umbra/internal/source"
)

var statusOpts struct {
	follow bool
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output the theme in Waybar's custom module JSON format.

With --follow, a new line is written on every change, which suits Waybar's
continuous exec mode:

  "custom/theme": {
    "exec": "umbra status --follow",
    "return-type": "json",
    "on-click": "umbra set dark",
    "on-click-right": "umbra set auto"
  }

The output includes:
  - text: dark or light
  - alt/class: dark or light, for icons and CSS
  - tooltip: which input decided the theme`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusOpts.follow, "follow", false,
		"Keep running and print a line for every change")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, getConfig(), logger, appOptions{follow: statusOpts.follow})
	if err != nil {
		return err
	}
	defer a.Close()

	if !statusOpts.follow {
		return outputStatus(os.Stdout, generateStatus(a.source.Inputs(), time.Time{}))
	}

	var sub component.ThemeSubscription
	sub.Attach(a.hub, func(bool) {
		if err := outputStatus(os.Stdout, generateStatus(a.source.Inputs(), a.hub.ChangedAt())); err != nil {
			logger.Warn("failed to write status", "error", err)
		}
	})
	defer sub.Detach()

	<-ctx.Done()
	return nil
}

// generateStatus creates a WaybarStatus from the theme inputs. A zero
// changedAt omits the relative time from the tooltip.
func generateStatus(in source.Inputs, changedAt time.Time) WaybarStatus {
	name := themeName(in.Dark)

	var tooltip string
	if source.Explicit(in.Value, in.Present) {
		tooltip = fmt.Sprintf("Theme: %s\nSet by %s=%s", name, in.Attribute, in.Value)
	} else {
		tooltip = fmt.Sprintf("Theme: %s\nFollowing OS preference (%s)", name, themeName(in.OSDark))
	}
	if !changedAt.IsZero() {
		tooltip += "\nChanged " + humanize.Time(changedAt)
	}

	return WaybarStatus{
		Text:    name,
		Alt:     name,
		Tooltip: tooltip,
		Class:   name,
	}
}

// outputStatus writes the status as JSON.
func outputStatus(w io.Writer, status WaybarStatus) error {
	encoder := json.NewEncoder(w)
	return encoder.Encode(status)
}
