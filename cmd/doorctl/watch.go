package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/groblegark/doord/internal/codec"
	"github.com/groblegark/doord/internal/events"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream door state changes until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		sub, err := events.NewNATSSubscriber(natsURL, nil)
		if err != nil {
			return err
		}
		defer sub.Close()

		states, cancel, err := sub.Subscribe(events.StateSubject(doorID))
		if err != nil {
			return err
		}
		defer cancel()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case data, ok := <-states:
				if !ok {
					return nil
				}
				st, err := codec.DecodeState(data)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Warning: undecodable state payload: %v\n", err)
					continue
				}
				if jsonOutput {
					printStateJSON(st)
				} else {
					printStateTable(st)
				}
			}
		}
	},
}
