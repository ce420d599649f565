package main

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/daygrid/daygrid/internal/backup"
)

func importCmd(cfgFile *string) *cobra.Command {
	var withSync bool

	cmd := &cobra.Command{
		Use:   "import [snapshot.json]",
		Short: "Replace the local state with an exported snapshot",
		Long: `Replace all local data with the contents of an exported snapshot.

The snapshot is validated wholesale first; an invalid file changes nothing.
With --sync the replacement is also pushed to the remote store as one
overwrite batch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*cfgFile)
			if err != nil {
				return err
			}
			defer a.close()

			snap, err := backup.ReadSnapshot(afero.NewOsFs(), args[0])
			if err != nil {
				return err
			}

			if withSync {
				if a.rec == nil {
					return fmt.Errorf("--sync requires remote_url in the config")
				}
				if err := a.rec.Enable(context.Background()); err != nil {
					return err
				}
			}
			if err := a.st.ImportSnapshot(snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d tasks, %d logs, %d observations\n",
				len(snap.Tasks), len(snap.Logs), len(snap.Observations))
			return nil
		},
	}

	cmd.Flags().BoolVar(&withSync, "sync", false, "push the imported state to the remote store")
	return cmd
}
