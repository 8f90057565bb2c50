package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tripsheet/validation"
	"tripsheet/workflow"
)

func newCreateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create an itinerary interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			p := newPrompter(cmd.InOrStdin(), out)

			flow := workflow.NewCreateFlow(c.app.withTerminal(out))
			defer flow.Close()
			draft := flow.Draft()
			if err := fillForm(p, draft.Form); err != nil {
				return err
			}
			if err := editDays(p, draft.Days); err != nil {
				return err
			}

			for {
				id, err := flow.Submit(cmd.Context())
				if err == nil {
					fmt.Fprintln(out, id)
					return nil
				}
				if errors.Is(err, validation.ErrInvalid) {
					if err := fillForm(p, draft.Form); err != nil {
						return err
					}
					continue
				}
				retry, perr := p.confirm("Retry?")
				if perr != nil || !retry {
					return err
				}
			}
		},
	}
}
