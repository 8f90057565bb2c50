package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tripsheet/render"
	"tripsheet/workflow"
)

func newPDFCmd(c *cli) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "pdf <id>",
		Short: "Write an itinerary as a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			flow := workflow.NewListFlow(c.app.withTerminal(out))
			defer flow.Close()
			if err := flow.Load(cmd.Context()); err != nil {
				return err
			}
			rec, ok := flow.Find(args[0])
			if !ok {
				return workflow.ErrNotListed
			}

			var buf bytes.Buffer
			if err := flow.Download(cmd.Context(), rec.ID, &buf); err != nil {
				return err
			}
			path := output
			if path == "" {
				path = render.Filename(rec)
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return err
			}
			fmt.Fprintln(out, path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <customer name>.pdf)")
	return cmd
}
