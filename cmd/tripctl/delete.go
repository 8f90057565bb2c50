package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"tripsheet/workflow"
)

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an itinerary after confirmation",
		Long: `Delete asks for confirmation. Without an answer before the confirmation
expires the delete is cancelled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			p := newPrompter(cmd.InOrStdin(), out)

			deps := c.app.withTerminal(out)
			flow := workflow.NewListFlow(deps)
			defer flow.Close()
			if err := flow.Load(ctx); err != nil {
				return err
			}
			conf, err := flow.RequestDelete(ctx, args[0])
			if err != nil {
				return err
			}

			answer, err := p.askWithin("[y/N] ", time.Until(conf.ExpiresAt))
			switch {
			case errors.Is(err, errNoAnswer):
				fmt.Fprintln(out, "No answer, delete cancelled")
				return flow.Decline(ctx, conf.Token)
			case err != nil:
				_ = flow.Decline(ctx, conf.Token)
				return err
			case !yes(answer):
				return flow.Decline(ctx, conf.Token)
			}
			return flow.ConfirmDelete(ctx, conf.Token)
		},
	}
}
