package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/roomflow/internal/config"
	"github.com/zjrosen/roomflow/internal/log"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 response does not land in the route prompt.
	_ = lipgloss.HasDarkBackground()
}

var (
	version    = "dev"
	cfgFile    string
	debug      bool
	cfg        config.Config
	cfgPath    string
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "navsim",
	Short: "Headless driver for the roomflow navigation flows",
	Long: `navsim drives the roomflow navigation coordinators without a UI: play
YAML scenarios, inspect a live session in the terminal, parse deep links and
manage the recently visited rooms store.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCleanup != nil {
			logCleanup()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .roomflow/config.yaml, then ~/.config/roomflow/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"write debug logs to the data directory (also ROOMFLOW_DEBUG=1)")
}

func setup(*cobra.Command, []string) error {
	if debug || os.Getenv("ROOMFLOW_DEBUG") != "" {
		path := filepath.Join(config.DefaultDataDir(), "debug.log")
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		cleanup, err := log.Init(path)
		if err != nil {
			return fmt.Errorf("opening debug log: %w", err)
		}
		logCleanup = cleanup
	}

	var err error
	cfg, cfgPath, err = config.Load(cfgFile)
	if err != nil {
		return err
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Exporter == "file" && cfg.Tracing.FilePath == "" {
		cfg.Tracing.FilePath = config.DefaultTracesFilePath()
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
