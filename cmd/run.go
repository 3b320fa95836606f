package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/zjrosen/roomflow/internal/config"
	"github.com/zjrosen/roomflow/internal/infrastructure/sqlite"
	"github.com/zjrosen/roomflow/internal/log"
	"github.com/zjrosen/roomflow/internal/scenario"
	"github.com/zjrosen/roomflow/internal/session"
	"github.com/zjrosen/roomflow/internal/ui/styles"
	"github.com/zjrosen/roomflow/internal/watcher"
)

// ErrScenarioFailed is returned when at least one expectation failed.
var ErrScenarioFailed = errors.New("scenario failed")

var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>...",
	Short: "Play scenario scripts against fresh sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScenarios,
}

func init() {
	runCmd.Flags().BoolP("watch", "w", false, "re-run scenarios when they change")
	runCmd.Flags().Bool("persist-recents", false, "record visited rooms in the recents database")
	runCmd.Flags().BoolP("verbose", "v", false, "log to stderr")
	runCmd.Flags().Bool("fast", false, "run with zero presentation delays")
	rootCmd.AddCommand(runCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		log.InitWriter(cmd.ErrOrStderr(), log.LevelDebug)
	}
	runCfg := cfg
	if fast, _ := cmd.Flags().GetBool("fast"); fast {
		runCfg.Delays = config.DelaysConfig{}
	}

	var opts []scenario.RunOption
	if persist, _ := cmd.Flags().GetBool("persist-recents"); persist {
		db, err := sqlite.NewDB(runCfg.Recents.DBPath)
		if err != nil {
			return fmt.Errorf("opening recents database: %w", err)
		}
		defer func() { _ = db.Close() }()
		opts = append(opts, scenario.WithMemoryOptions(session.WithRecents(recentsStore(db, runCfg))))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	err := playAll(ctx, out, args, runCfg, opts)
	if watch, _ := cmd.Flags().GetBool("watch"); !watch {
		return err
	}
	return watchScenarios(ctx, out, args, runCfg, opts)
}

func recentsStore(db *sql.DB, c config.Config) *sqlite.RecentsRepository {
	return sqlite.NewRecentsRepository(db, c.Recents.Limit)
}

func playAll(ctx context.Context, out io.Writer, paths []string, c config.Config, opts []scenario.RunOption) error {
	var errs []error
	for _, path := range paths {
		if err := play(ctx, out, path, c, opts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func play(ctx context.Context, out io.Writer, path string, c config.Config, opts []scenario.RunOption) error {
	script, err := scenario.Load(path)
	if err != nil {
		_, _ = fmt.Fprintln(out, styles.ErrorStyle.Render("✗ "+err.Error()))
		return err
	}

	title := script.Name
	if title == "" {
		title = path
	}
	_, _ = fmt.Fprintln(out, title)

	hook := scenario.WithStepHook(func(sr scenario.StepResult) {
		if sr.Err != nil {
			_, _ = fmt.Fprintf(out, "  %s %s\n      %v\n", styles.ErrorStyle.Render("✗"), sr.Step, sr.Err)
			return
		}
		_, _ = fmt.Fprintf(out, "  %s %s\n", styles.SuccessStyle.Render("✓"), sr.Step)
	})
	res, err := scenario.Run(ctx, script, c, append(slices.Clone(opts), hook)...)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if res.Failed() {
		return fmt.Errorf("%s: %w", path, ErrScenarioFailed)
	}
	return nil
}

// watchScenarios re-plays each scenario file as it changes until ctx is
// cancelled. A change to the config file reloads it and re-plays them all.
func watchScenarios(ctx context.Context, out io.Writer, paths []string, c config.Config, opts []scenario.RunOption) error {
	files := slices.Clone(paths)
	if cfgPath != "" {
		files = append(files, cfgPath)
	}
	w, err := watcher.New(watcher.DefaultConfig(files...))
	if err != nil {
		return err
	}
	changes, err := w.Start()
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	_, _ = fmt.Fprintln(out, "watching for changes (ctrl+c to stop)")
	for {
		select {
		case <-ctx.Done():
			return nil
		case changed, ok := <-changes:
			if !ok {
				return nil
			}
			replay := changed
			if cfgPath != "" && slices.Contains(changed, filepath.Clean(cfgPath)) {
				reloaded, _, err := config.Load(cfgPath)
				if err != nil {
					_, _ = fmt.Fprintln(out, styles.ErrorStyle.Render("✗ "+err.Error()))
					continue
				}
				c.Delays, c.Flags, c.Cache, c.Loop = reloaded.Delays, reloaded.Flags, reloaded.Cache, reloaded.Loop
				log.Info(log.CatConfig, "config reloaded", "path", cfgPath)
				replay = paths
			}
			// Failures are already printed; keep watching.
			_ = playAll(ctx, out, replay, c, opts)
		}
	}
}
