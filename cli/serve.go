package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chaos-io/rembg/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve background removal over HTTP",
		Long: `Start an HTTP server.

  GET  /healthz
  POST /api/v1/remove   multipart "image", optional "mode" and "threshold"; returns PNG
  POST /api/v1/inline   same form; returns JSON with a data URI

HOST, PORT, MAX_UPLOAD_BYTES, RATE_LIMIT_RPS and RATE_LIMIT_BURST configure the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.logger.Info("configuration loaded",
				slog.String("ENVIRONMENT", a.cfg.Environment),
				slog.String("HOST", a.cfg.Host),
				slog.Int("PORT", a.cfg.Port),
				slog.String("LOG_LEVEL", a.cfg.LogLevel),
				slog.Int("REMBG_THRESHOLD", a.cfg.Threshold),
				slog.Int64("MAX_UPLOAD_BYTES", a.cfg.MaxUploadBytes))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := server.NewServer(a.cfg, a.logger).Start(ctx); err != nil {
				a.logger.Error("server error", slog.String("error", err.Error()))
				return err
			}
			return nil
		},
	}
}
