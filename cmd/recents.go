package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/roomflow/internal/infrastructure/sqlite"
)

var (
	recentsUser  string
	recentsClear bool
)

type recentDTO struct {
	RoomID    string    `json:"room_id"`
	VisitedAt time.Time `json:"visited_at"`
}

var recentsCmd = &cobra.Command{
	Use:   "recents",
	Short: "Show or clear recently visited rooms",
	Long: `Show the rooms recorded by "navsim run --persist-recents" as JSON,
most recent first.

Examples:
  navsim recents --user @alice:example.org
  navsim recents --user @alice:example.org --clear`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if recentsUser == "" {
			return fmt.Errorf("--user is required")
		}
		db, err := sqlite.NewDB(cfg.Recents.DBPath)
		if err != nil {
			return fmt.Errorf("opening recents database: %w", err)
		}
		defer func() { _ = db.Close() }()

		repo := recentsStore(db, cfg)
		if recentsClear {
			if err := repo.Clear(cmd.Context(), recentsUser); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cleared recents for %s\n", recentsUser)
			return nil
		}

		rooms, err := repo.List(cmd.Context(), recentsUser)
		if err != nil {
			return err
		}
		out := make([]recentDTO, 0, len(rooms))
		for _, r := range rooms {
			out = append(out, recentDTO{RoomID: r.RoomID, VisitedAt: r.VisitedAt})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	recentsCmd.Flags().StringVarP(&recentsUser, "user", "u", "", "user whose recents to show")
	recentsCmd.Flags().BoolVar(&recentsClear, "clear", false, "delete the recorded rooms")
	rootCmd.AddCommand(recentsCmd)
}
