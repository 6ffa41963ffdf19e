// Command radarctl manages the game radar store from the terminal: it edits
// categories and games, moves data in and out as CSV, runs a poll on demand
// and tails update notifications from the broker.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"gameradar/internal/cli"
	"gameradar/internal/config"
	"gameradar/internal/log"
)

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// state is shared by every subcommand of one invocation.
type state struct {
	verbose bool
	jsonOut bool
	logOut  io.Writer
	cfg     *config.Config
	app     *cli.App
	logger  *log.Logger
}

func newRootCmd() *cobra.Command {
	return buildRootCmd(&state{})
}

func buildRootCmd(st *state) *cobra.Command {
	root := &cobra.Command{
		Use:           "radarctl",
		Short:         "Manage tracked Roblox games and their update radar",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return st.close(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVarP(&st.verbose, "verbose", "v", false, "log at info level instead of warn")
	root.PersistentFlags().BoolVar(&st.jsonOut, "json", false, "output as JSON")

	root.AddCommand(newCategoriesCmd(st))
	root.AddCommand(newCategoryCmd(st))
	root.AddCommand(newGameCmd(st))
	root.AddCommand(newExportCmd(st))
	root.AddCommand(newImportCmd(st))
	root.AddCommand(newPollCmd(st))
	root.AddCommand(newWatchCmd(st))
	return root
}

// open loads config and, unless the command only talks to the broker,
// builds the application graph.
func (st *state) open(cmd *cobra.Command) error {
	cli.LoadEnvFile()

	level := "warn"
	if st.verbose {
		level = "info"
	}
	out := st.logOut
	if out == nil {
		out = cmd.ErrOrStderr()
	}
	st.logger = cli.SetupLogger(out, level)

	cfg, err := cli.LoadConfig()
	if err != nil {
		return err
	}
	st.cfg = cfg

	if cmd.Annotations[annotationNoStore] == "true" {
		return nil
	}
	app, err := cli.Build(cmd.Context(), cfg, st.logger)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	st.app = app
	return nil
}

func (st *state) close(ctx context.Context) error {
	if st.app == nil {
		return nil
	}
	err := st.app.Close(ctx)
	st.app = nil
	return err
}

// annotationNoStore marks commands that never touch the store.
const annotationNoStore = "radarctl/no-store"
