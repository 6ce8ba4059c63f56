package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chaos-io/rembg/batch"
	"github.com/chaos-io/rembg/rembg"
	"github.com/chaos-io/rembg/schedule"
)

func newScheduleCmd(a *app) *cobra.Command {
	var (
		spec      string
		modeName  string
		threshold int
	)

	cmd := &cobra.Command{
		Use:   "schedule --cron SPEC [<input1> <output1> ...]",
		Short: "Re-run background removal on a cron schedule",
		Long: `Re-process the given pairs every time the cron spec fires, until interrupted.

In greenscreen mode with no pairs the configured assets are processed in place.
A run that is still going when the next one is due is skipped.

Example:
  rembg schedule --cron "@every 10m" --mode greenscreen`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := rembg.ParseMode(modeName)
			if err != nil {
				return err
			}

			jobs, err := scheduledJobs(a, mode, args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			processor := batch.NewProcessor(a.policy(cmd, mode, threshold), a.logger)
			s := schedule.New(a.logger)
			err = s.Add(ctx, spec, mode.String(), func(ctx context.Context) {
				report := processor.Run(ctx, jobs)
				a.logger.Info("scheduled batch finished",
					slog.Int("succeeded", len(report.Succeeded())),
					slog.Int("failed", len(report.Failed())))
			})
			if err != nil {
				return err
			}

			a.logger.Info("scheduler started", slog.String("cron", spec), slog.Int("images", len(jobs)))
			s.Run(ctx)
			a.logger.Info("scheduler stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&spec, "cron", "", `cron spec, e.g. "*/15 * * * *" or "@every 10m"`)
	cmd.Flags().StringVar(&modeName, "mode", "sampled", "sampled or greenscreen")
	cmd.Flags().IntVarP(&threshold, "threshold", "t", rembg.DefaultThreshold, "per-channel tolerance for sampled mode (env REMBG_THRESHOLD)")
	_ = cmd.MarkFlagRequired("cron")
	return cmd
}

func scheduledJobs(a *app, mode rembg.Mode, args []string) ([]batch.Job, error) {
	if len(args) == 0 {
		if mode == rembg.ModeGreenScreen {
			return batch.InPlace(a.cfg.GreenScreenList()), nil
		}
		return nil, fmt.Errorf("sampled mode needs <input> <output> pairs")
	}
	return batch.Pairs(args)
}
