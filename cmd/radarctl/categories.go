package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gameradar/internal/core"
)

func newCategoriesCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories and their games",
		Long: `Categories prints every category in display order with its games,
most recently updated first.

The --json output is a full store snapshot and can be used as SEED_FILE
for the memory backend.

Example:
  radarctl categories
  radarctl categories --json > seed.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := st.app.Catalog.Snapshot()
			if st.jsonOut {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			printStore(cmd.OutOrStdout(), snap)
			return nil
		},
	}
}

func newCategoryCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Add, rename or delete a category",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create an empty category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := st.app.Catalog.AddCategory(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("add category: %w", err)
			}
			if st.jsonOut {
				return writeJSON(cmd.OutOrStdout(), cat)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created category %q (%s)\n", cat.Name, cat.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a category",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := st.app.Catalog.Category(args[0]); !ok {
				return fmt.Errorf("rename category: %w: %s", core.ErrNotFound, args[0])
			}
			if err := st.app.Catalog.RenameCategory(cmd.Context(), args[0], args[1]); err != nil {
				return fmt.Errorf("rename category: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", args[0], strings.TrimSpace(args[1]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category, moving its games to Default",
		Long: `Delete removes a category. Its games move to Default. Deleting
Default itself drops its games and a fresh empty Default is created.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := st.app.Catalog.Category(args[0]); !ok {
				return fmt.Errorf("delete category: %w: %s", core.ErrNotFound, args[0])
			}
			st.app.Catalog.DeleteCategory(cmd.Context(), args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// printStore prints categories and games in a human-readable table format.
func printStore(out io.Writer, st core.Store) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, c := range st.Categories {
		fmt.Fprintf(w, "%s\t(%s)\t%d game(s)\n", c.Name, c.ID, len(c.Games))
		for _, g := range c.Games {
			name := g.Name
			if len(name) > 40 {
				name = name[:37] + "..."
			}
			fmt.Fprintf(w, "  %s\t%s\t%s\n", g.PlaceID, name, g.LastUpdated)
		}
	}
	w.Flush()
	fmt.Fprintf(out, "Total: %d categor(ies), %d game(s)\n", len(st.Categories), st.TotalGames())
}
