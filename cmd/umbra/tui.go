package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/umbra/internal/tui"
)

var tuiOpts struct {
	inline bool
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive TUI",
	Long: `Launch the example terminal UI: a counter and a status bar, each its own
component subscribed to the shared theme.

The theme follows the root state file and the OS preference live. Run
'umbra set dark' in another terminal and every component re-renders.

Key bindings:
  space       Count
  0           Reset the count
  t           Cycle theme (auto, dark, light)
  ?           Show help
  q           Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().BoolVar(&tuiOpts.inline, "inline", false,
		"Render inline instead of using the alternate screen")
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, getConfig(), logger, appOptions{follow: true})
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(tui.RunOptions{
		Options:   a.tuiOptions(),
		AltScreen: !tuiOpts.inline,
	})
}
