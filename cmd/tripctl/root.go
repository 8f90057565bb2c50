package main

import (
	"github.com/spf13/cobra"
)

// cli carries the opened app from PersistentPreRunE to the subcommands.
type cli struct {
	open       opener
	configPath string
	app        *app
}

func newRootCmd(open opener) *cobra.Command {
	c := &cli{open: open}
	root := &cobra.Command{
		Use:           "tripctl",
		Short:         "Create, edit, export and delete travel itineraries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context(), c.configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.close()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "YAML config file (default: environment)")

	root.AddCommand(
		newCreateCmd(c),
		newListCmd(c),
		newShowCmd(c),
		newEditCmd(c),
		newDeleteCmd(c),
		newPDFCmd(c),
		newExportCmd(c),
		newWatchCmd(c),
	)
	return root
}
