package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"gameradar/internal/core"
)

func newGameCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Add, remove or move a tracked game",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <game-url>",
		Short: "Track a game by its roblox.com page URL",
		Long: `Add resolves the place in a game page URL to its universe, fetches
its name, update time and icon, and files it under Default.

Example:
  radarctl game add https://www.roblox.com/games/606849621/Jailbreak`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := st.app.Service.AddGame(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("add game: %w", err)
			}
			if st.jsonOut {
				return writeJSON(cmd.OutOrStdout(), g)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q (place %s, universe %s, updated %s)\n",
				g.Name, g.PlaceID, g.UniverseID, g.LastUpdated)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <category-id> <place-id>",
		Short: "Stop tracking a game",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !st.app.Catalog.RemoveGame(cmd.Context(), args[0], args[1]) {
				return fmt.Errorf("remove game: %w: place %s in category %s", core.ErrNotFound, args[1], args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed place %s\n", args[1])
			return nil
		},
	})

	var from string
	move := &cobra.Command{
		Use:   "move <place-id> <to-category-id>",
		Short: "Move a game to another category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			placeID, to := args[0], args[1]
			src := from
			if src == "" {
				current, _, found := st.app.Catalog.FindGame(placeID)
				if !found {
					return fmt.Errorf("move game: %w: place %s", core.ErrNotFound, placeID)
				}
				src = current
			}
			if !st.app.Catalog.MoveGame(cmd.Context(), placeID, src, to) {
				return fmt.Errorf("move game: cannot move place %s from %s to %s", placeID, src, to)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved place %s to %s\n", placeID, to)
			return nil
		},
	}
	move.Flags().StringVar(&from, "from", "", "source category id (default: the game's current category)")
	cmd.AddCommand(move)

	return cmd
}
