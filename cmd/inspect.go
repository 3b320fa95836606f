package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/roomflow/internal/app"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/scenario"
	"github.com/zjrosen/roomflow/internal/ui/inspector"
)

var inspectPlay bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <scenario.yaml>",
	Short: "Explore a session seeded from a scenario in the terminal",
	Long: `Start a session with the scenario's user, rooms, aliases and flags and
open the inspector. With --play the scenario's steps are played while the
inspector is open.

Keys:
  r      type a route
  tab    switch between the chats and spaces tabs
  x      dismiss the top-most sheet
  l      toggle the log panel
  q      quit`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVarP(&inspectPlay, "play", "p", false, "play the scenario steps after starting")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	script, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	a, err := app.New(script.Apply(cfg), script.Session())
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}
	defer func() {
		if cerr := a.Close(context.Background()); cerr != nil {
			log.ErrorErr(log.CatUI, "close session", cerr)
		}
	}()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := a.Start(ctx); err != nil {
		return err
	}

	if inspectPlay {
		go func() {
			res, err := scenario.Play(ctx, a, script)
			switch {
			case err != nil:
				log.ErrorErr(log.CatUI, "scenario playback stopped", err)
			case res.Failed():
				log.Warn(log.CatUI, "scenario finished with failures", "error", res.Err())
			default:
				log.Info(log.CatUI, "scenario finished", "steps", len(res.Steps))
			}
		}()
	}

	p := tea.NewProgram(inspector.New(a), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
