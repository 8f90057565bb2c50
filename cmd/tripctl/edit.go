package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tripsheet/validation"
	"tripsheet/workflow"
)

func newEditCmd(c *cli) *cobra.Command {
	var asCopy bool
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit an itinerary, or save the edited version as a copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			p := newPrompter(cmd.InOrStdin(), out)

			flow := workflow.NewEditFlow(c.app.withTerminal(out), args[0])
			defer flow.Close()
			if err := flow.Load(cmd.Context()); err != nil {
				return err
			}
			draft, err := flow.Draft()
			if err != nil {
				return err
			}
			if err := fillForm(p, draft.Form); err != nil {
				return err
			}
			if err := editDays(p, draft.Days); err != nil {
				return err
			}

			for {
				var id string
				if asCopy {
					id, err = flow.SaveAsCopy(cmd.Context())
				} else {
					id, err = flow.ID(), flow.Update(cmd.Context())
				}
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
	cmd.Flags().BoolVar(&asCopy, "copy", false, "save as a new itinerary instead of updating")
	return cmd
}
