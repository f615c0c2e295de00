// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newFilesCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	var absolute bool
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Print the modules loaded by discovery, in load order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return err
			}
			res, err := app.Discovery.Discover(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			root, _ := filepath.Abs(cfg.RootDir)
			for _, f := range res.Files {
				if !absolute {
					f = relativeTo(root, f)
				}
				fmt.Fprintln(app.stdout, f)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&absolute, "absolute", false, "print absolute paths")
	return cmd
}
