package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/kerosiinikone/pixelbubble/client"
	"github.com/kerosiinikone/pixelbubble/pipeline"
	"github.com/spf13/cobra"
)

var (
	renderOpts    Options
	renderDataURI bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an image locally",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRender(cmd, renderOpts)
	},
}

func init() {
	bindRenderFlags(renderCmd, &renderOpts)
	renderCmd.Flags().BoolVar(&renderDataURI, "data-uri", false, "Print a data: URI to stdout instead of writing a file")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, opts Options) error {
	params, err := opts.params(Cfg)
	if err != nil {
		return err
	}

	file, _, err := client.OpenImage(opts.InputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	start := time.Now()
	out, err := pipeline.Run(cmd.Context(), file, Cfg.DecodeOptions(), params)
	if err != nil {
		return fmt.Errorf("%s (%s): %w", opts.InputPath, pipeline.ReasonOf(err), err)
	}

	if renderDataURI {
		fmt.Fprintln(cmd.OutOrStdout(), out.DataURI())
		return nil
	}
	path, err := client.SaveImage(opts.OutputPath, out.Filename, out.PNG)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Rendered %dx%d %s art (block %d) in %s -> %s\n",
		out.Width, out.Height, out.Mode, out.BlockSize, time.Since(start).Round(time.Millisecond), path)
	return nil
}
