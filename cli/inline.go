package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chaos-io/rembg/asset"
	nhttp "github.com/chaos-io/rembg/util/http"
)

func newInlineCmd(a *app) *cobra.Command {
	var opts asset.Options

	cmd := &cobra.Command{
		Use:   "inline <image> <output.js>",
		Short: "Write an image into a JS file as a base64 data URI",
		Long: `Write window.<var> = "data:<mime>;base64,...";

The variable name defaults to the file name in camel case plus "Base64",
e.g. nook.png becomes nookBase64.

Example:
  rembg inline frontend/public/assets/character/nook.png asset-studio/nook_data.js`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, out := args[0], args[1]

			inlined, err := asset.Load(cmd.Context(), nhttp.NewHTTPClient(), src, opts)
			if err != nil {
				return err
			}
			if err := asset.WriteJS(out, inlined); err != nil {
				return err
			}

			a.logger.Info("inlined asset",
				slog.String("source", src),
				slog.String("output", out),
				slog.String("var", inlined.VarName),
				slog.String("media_type", inlined.MediaType),
				slog.Int("bytes", len(inlined.Data)))
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully created %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.VarName, "var", "", "JS variable name (default <name>Base64)")
	cmd.Flags().IntVar(&opts.MaxSize, "max-size", 0, "downscale so the longest side is at most this many pixels (0 keeps size)")
	cmd.Flags().BoolVar(&opts.Trim, "trim", false, "crop fully transparent borders before inlining")
	return cmd
}
