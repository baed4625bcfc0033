package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/remote"
	"comfyui-data-manager/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run only the /dm/* backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logging.Sync()

		srv, err := server.New(server.Options{
			BaseDir:  cfg.Server.BaseDir,
			TrashDir: cfg.Server.TrashDir,
			Origins:  cfg.Server.AllowedOrigins,
			Remote: remote.NewManager(remote.Options{
				KnownHostsPath: cfg.SSH.KnownHosts,
				ConnectTimeout: cfg.SSH.ConnectTimeout,
			}),
		})
		if err != nil {
			return err
		}
		if _, err := srv.Start(cfg.Server.Listen); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		logging.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	},
}
