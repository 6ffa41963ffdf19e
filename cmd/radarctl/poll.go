package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"gameradar/internal/notify"
)

func newPollCmd(st *state) *cobra.Command {
	var prompt bool
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Check every tracked game for updates once",
		Long: `Poll fetches current info for every tracked universe in one batched
call, stores new update times and sends a notification per updated game.

With --prompt an undecided notification permission is asked for on stdin
before polling.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if prompt {
				p, err := st.app.Gate.RequestPermission(cmd.Context(),
					promptRequester(cmd.InOrStdin(), cmd.ErrOrStderr()))
				if err != nil {
					return err
				}
				st.logger.InfoContext(cmd.Context(), "Notification permission", "permission", string(p))
			}

			res, err := st.app.Reconciler.Poll(cmd.Context())
			if err != nil {
				return fmt.Errorf("poll: %w", err)
			}
			if st.jsonOut {
				return writeJSON(cmd.OutOrStdout(), res)
			}

			out := cmd.OutOrStdout()
			if len(res.Updated) == 0 {
				fmt.Fprintf(out, "Checked %d game(s), no updates\n", res.Checked)
				return nil
			}
			fmt.Fprintf(out, "Checked %d game(s), %d updated:\n", res.Checked, len(res.Updated))
			for _, g := range res.Updated {
				fmt.Fprintf(out, "  %s  %s  %s\n", g.PlaceID, g.Name, g.LastUpdated)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&prompt, "prompt", false, "ask for notification permission if it is undecided")
	return cmd
}

// promptRequester asks a yes/no question on the terminal. Anything but an
// explicit yes is a denial.
func promptRequester(in io.Reader, out io.Writer) notify.Requester {
	return notify.RequesterFunc(func(ctx context.Context) (notify.Permission, error) {
		fmt.Fprint(out, "Allow game update notifications? [y/N] ")
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			if err == io.EOF {
				return notify.PermissionDenied, nil
			}
			return "", err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return notify.PermissionGranted, nil
		default:
			return notify.PermissionDenied, nil
		}
	})
}
