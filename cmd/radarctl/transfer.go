package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newExportCmd(st *state) *cobra.Command {
	var (
		output   string
		toSheets bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the store as CSV",
		Long: `Export writes the store in the 8-column CSV format to stdout, to a
file with -o, or mirrors it into the configured Google Sheet with --sheets.

Example:
  radarctl export > radar.csv
  radarctl export -o .
  radarctl export --sheets`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if toSheets {
				rows, err := st.app.Service.MirrorToSheet(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Mirrored %d row(s) to sheet %q\n", rows, st.cfg.GoogleSheetName)
				return nil
			}

			text, fileName := st.app.Service.Export()
			if output == "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
				return err
			}

			path := output
			if info, err := os.Stat(output); err == nil && info.IsDir() {
				path = filepath.Join(output, fileName)
			}
			if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file or directory to write (default: stdout)")
	cmd.Flags().BoolVar(&toSheets, "sheets", false, "mirror into the configured Google Sheet instead")
	return cmd
}

func newImportCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the store with a CSV export",
		Long: `Import parses a CSV export and replaces every category with its
contents. Nothing changes if the file does not parse. Use - to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read import: %w", err)
			}

			res, err := st.app.Service.Import(cmd.Context(), string(data))
			if err != nil {
				return fmt.Errorf("import: %w", err)
			}
			if st.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d categor(ies), %d game(s)\n", res.Categories, res.Games)
			return nil
		},
	}
}
