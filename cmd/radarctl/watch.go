package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gameradar/internal/amqp"
	"gameradar/internal/log"
)

func newWatchCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print game update notifications from the broker as they arrive",
		Long: `Watch subscribes to game updates on the broker (AMQP_URL,
AMQP_EXCHANGE, AMQP_QUEUE) and prints one line per update until
interrupted. It reads from a private queue, so it never takes messages
away from radar-worker. The broker connection is re-established with
backoff if it drops.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !st.cfg.AMQPEnabled() {
				return errors.New("watch: AMQP_URL is not set")
			}
			client, err := amqp.NewClient(st.cfg.AMQPURL, st.cfg.AMQPExchange, st.cfg.AMQPQueue,
				st.logger.WithComponent(log.ComponentAMQP))
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			defer client.Close()

			err = client.WatchGameUpdates(cmd.Context(), printUpdate(cmd.OutOrStdout(), st.jsonOut))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func printUpdate(out io.Writer, asJSON bool) func(context.Context, *amqp.GameUpdatedMessage) error {
	return func(_ context.Context, msg *amqp.GameUpdatedMessage) error {
		if asJSON {
			data, err := msg.ToJSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(data))
			return err
		}
		_, err := fmt.Fprintf(out, "%s  %s updated at %s (place %s)\n",
			msg.DetectedAt.Format("2006-01-02 15:04:05"), msg.Name, msg.LastUpdated, msg.PlaceID)
		return err
	}
}
