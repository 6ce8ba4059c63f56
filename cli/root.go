package cli

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/chaos-io/rembg/config"
	"github.com/chaos-io/rembg/logger"
	"github.com/chaos-io/rembg/rembg"
)

// Version 构建时通过 -ldflags "-X github.com/chaos-io/rembg/cli.Version=..." 注入
var Version = "dev"

// app 命令之间共享的配置和日志
type app struct {
	cfg    *config.Environment
	logger *slog.Logger
}

func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:               "rembg",
		Version:           Version,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		SilenceUsage:      true,
		Short:             "Chroma-key background removal for image assets",
		Long: `rembg replaces background pixels with transparent ones.

Two rules are available:
  sampled      the color of the top-left pixel is the background; a pixel matches
               when every RGB channel differs by less than the threshold
  greenscreen  a pixel matches when R < 120, G > 180 and B < 120`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			a.cfg, err = config.Load()
			if err != nil {
				log.Printf("failed to load configuration: %v", err.Error())
				return err
			}
			a.logger = logger.InitLogger(logger.ParseLogLevel(a.cfg.LogLevel), a.cfg.Environment)
			return nil
		},
	}

	rootCmd.AddCommand(
		newQuickCmd(a),
		newGreenScreenCmd(a),
		newInlineCmd(a),
		newServeCmd(a),
		newScheduleCmd(a),
	)
	return rootCmd
}

func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// policy 命令行参数优先，其次是配置
func (a *app) policy(cmd *cobra.Command, mode rembg.Mode, threshold int) rembg.Policy {
	if !cmd.Flags().Changed("threshold") {
		threshold = a.cfg.Threshold
	}
	return rembg.Policy{
		Mode:      mode,
		Threshold: threshold,
		Bounds:    a.cfg.GreenBounds(),
	}
}
