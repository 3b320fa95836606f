package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zjrosen/roomflow/internal/route"
)

var listKinds bool

// routeDTO is the JSON shape printed for a parsed link.
type routeDTO struct {
	Input        string   `json:"input"`
	Kind         string   `json:"kind,omitempty"`
	RoomID       string   `json:"room_id,omitempty"`
	Alias        string   `json:"alias,omitempty"`
	Via          []string `json:"via,omitempty"`
	EventID      string   `json:"event_id,omitempty"`
	ThreadRootID string   `json:"thread_root_id,omitempty"`
	UserID       string   `json:"user_id,omitempty"`
	URL          string   `json:"url,omitempty"`
	Error        string   `json:"error,omitempty"`
}

var routesCmd = &cobra.Command{
	Use:   "routes [link]...",
	Short: "Parse deep links into routes",
	Long: `Parse deep links and print the resulting routes as JSON.

Examples:
  # A permalink to an event
  navsim routes 'https://matrix.to/#/!abc:example.org/$ev1?via=example.org'

  # Several links at once
  navsim routes '#general:example.org' 'matrix:u/alice:example.org'

  # List every route kind
  navsim routes --kinds`,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")

		if listKinds {
			kinds := route.Kinds()
			names := make([]string, len(kinds))
			for i, k := range kinds {
				names[i] = k.String()
			}
			return enc.Encode(names)
		}
		if len(args) == 0 {
			return fmt.Errorf("at least one link is required")
		}

		out := make([]routeDTO, 0, len(args))
		for _, raw := range args {
			r, err := route.Parse(raw)
			if err != nil {
				out = append(out, routeDTO{Input: raw, Error: err.Error()})
				continue
			}
			out = append(out, fromRoute(raw, r))
		}
		return enc.Encode(out)
	},
}

func init() {
	routesCmd.Flags().BoolVar(&listKinds, "kinds", false, "list every route kind")
	rootCmd.AddCommand(routesCmd)
}

func fromRoute(raw string, r route.Route) routeDTO {
	return routeDTO{
		Input:        raw,
		Kind:         r.Kind.String(),
		RoomID:       r.RoomID,
		Alias:        r.Alias,
		Via:          r.Via,
		EventID:      r.EventID,
		ThreadRootID: r.ThreadRootID,
		UserID:       r.UserID,
		URL:          r.URL,
	}
}
