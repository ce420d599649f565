package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func exportCmd(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write a full snapshot of the local state to the backup dir",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgFile)
			if err != nil {
				return err
			}
			defer a.close()

			path, err := a.exporter.Export()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
