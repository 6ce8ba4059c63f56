package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaos-io/rembg/batch"
	"github.com/chaos-io/rembg/rembg"
	"github.com/chaos-io/rembg/util"
)

func newQuickCmd(a *app) *cobra.Command {
	var threshold int

	cmd := &cobra.Command{
		Use:   "quick <input1> <output1> [<input2> <output2> ...]",
		Short: "Remove the background sampled from each image's top-left pixel",
		Long: `Process input/output pairs with the sampled rule.

Inputs may be local files or http(s) URLs; outputs are always PNG.
A failure on one image is reported and the remaining pairs are still processed.

Example:
  rembg quick raw/nook.jpg assets/nook.png raw/player.jpg assets/player.png --threshold 30`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 || len(args)%2 != 0 {
				return fmt.Errorf("expected <input> <output> pairs, got %d argument(s)", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := batch.Pairs(args)
			if err != nil {
				return err
			}
			defer util.Trace("quick batch")()

			report := batch.NewProcessor(a.policy(cmd, rembg.ModeSampled, threshold), a.logger).Run(cmd.Context(), jobs)
			report.Print(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().IntVarP(&threshold, "threshold", "t", rembg.DefaultThreshold, "per-channel tolerance against the sampled color (env REMBG_THRESHOLD)")
	return cmd
}

func newGreenScreenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "greenscreen",
		Short: "Remove a green-screen background from the configured assets, in place",
		Long: `Overwrite each configured asset with its green-screen pixels made transparent.

The file list defaults to the character sprites and can be replaced with
GREENSCREEN_FILES (separated by '|'). Bounds come from GREEN_MAX_RED,
GREEN_MIN_GREEN and GREEN_MAX_BLUE (defaults 120, 180, 120).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			defer util.Trace("greenscreen batch")()

			jobs := batch.InPlace(a.cfg.GreenScreenList())
			policy := rembg.GreenScreenPolicy(a.cfg.GreenBounds())
			report := batch.NewProcessor(policy, a.logger).Run(cmd.Context(), jobs)
			report.Print(cmd.OutOrStdout())
			return nil
		},
	}
}
