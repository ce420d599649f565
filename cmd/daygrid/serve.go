package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/daygrid/daygrid/internal/config"
	"github.com/daygrid/daygrid/internal/server"
)

func serveCmd(cfgFile *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the self-hosted sync document store",
		Long: `Run the document store other daygrid instances sync against.

Point clients at it with remote_url in their config or DAYGRID_REMOTE_URL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.ListenAddr
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
				return err
			}
			docs, err := server.OpenDocStore(filepath.Join(cfg.DataDir, "documents.db"))
			if err != nil {
				return err
			}
			defer docs.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(docs, logger).Run(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8787)")
	return cmd
}
