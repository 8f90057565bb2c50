package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"tripsheet/mq"
)

func newWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print itinerary change events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.app.rdb == nil {
				return errors.New("watch needs REDIS_ADDR")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			out := cmd.OutOrStdout()
			return mq.Subscribe(ctx, c.app.rdb, c.app.cfg.Redis.EventsChannel, c.app.log, func(ev mq.Event) {
				fmt.Fprintf(out, "%s  %-20s %s  %s\n",
					ev.At.Local().Format("15:04:05"), ev.Type, ev.ItineraryID, ev.CustomerName)
			})
		},
	}
}
