package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tripsheet/itinerary"
	"tripsheet/workflow"
)

func newExportCmd(c *cli) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every itinerary to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			flow := workflow.NewListFlow(c.app.withTerminal(out))
			defer flow.Close()
			if err := flow.Load(cmd.Context()); err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := itinerary.ExportXLSX(flow.Records(), &buf); err != nil {
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintln(out, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "itineraries.xlsx", "output file")
	return cmd
}
