package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tripsheet/workflow"
)

func newListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved itineraries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			flow := workflow.NewListFlow(c.app.withTerminal(out))
			defer flow.Close()
			if err := flow.Load(cmd.Context()); err != nil {
				return err
			}
			if flow.IsEmpty() {
				fmt.Fprintln(out, workflow.EmptyList)
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCUSTOMER\tPERSONS\tDAYS\tTOTAL\tCREATED")
			for _, r := range flow.Records() {
				fmt.Fprintf(tw, "%s\t%s\t%g\t%d\t%s%g\t%s\n",
					r.ID, r.CustomerName, r.Details.Persons, len(r.Days),
					c.app.cfg.Render.Currency, r.TotalCost, r.CreatedAt.Local().Format("2006-01-02 15:04"))
			}
			return tw.Flush()
		},
	}
}
