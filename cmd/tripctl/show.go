package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"tripsheet/workflow"
)

func newShowCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one itinerary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			flow := workflow.NewEditFlow(c.app.withTerminal(out), args[0])
			defer flow.Close()
			if err := flow.Load(cmd.Context()); err != nil {
				return err
			}
			rec, err := flow.Original()
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}

			d := rec.Details
			hotel := d.HotelName
			if hotel == "" {
				hotel = "TBD"
			}
			cur := c.app.cfg.Render.Currency
			fmt.Fprintf(out, "%s (%s)\n", rec.CustomerName, rec.ID)
			fmt.Fprintf(out, "Persons: %g  Rooms: %g\n", d.Persons, d.Rooms)
			fmt.Fprintf(out, "Hotel: %s, %s\n", d.HotelCategory, hotel)
			fmt.Fprintf(out, "Vehicle: %s\n", d.Vehicle)
			if d.CostBefore != nil {
				fmt.Fprintf(out, "Cost before discount: %s%g\n", cur, *d.CostBefore)
			}
			fmt.Fprintf(out, "Total cost: %s%g\n\n", cur, rec.TotalCost)
			printDays(out, rec.Days)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the record as JSON")
	return cmd
}
