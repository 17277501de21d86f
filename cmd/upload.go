package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/kerosiinikone/pixelbubble/client"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var uploadOpts Options

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Render an image through a running service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpload(cmd.Context(), uploadOpts)
	},
}

func init() {
	bindRenderFlags(uploadCmd, &uploadOpts)
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(ctx context.Context, opts Options) error {
	params, err := opts.params(Cfg)
	if err != nil {
		return err
	}

	file, size, err := client.OpenImage(opts.InputPath)
	if err != nil {
		return err
	}
	defer file.Close()

	c, err := client.Dial(Cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	if Cfg.Transport.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, Cfg.Transport.Timeout)
		defer cancel()
	}

	bar := progressbar.NewOptions64(size,
		progressbar.OptionSetDescription("Uploading"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)

	res, err := c.Stylize(ctx, file, params, bar)
	if err != nil {
		return err
	}
	bar.Finish()
	if err := res.Err(); err != nil {
		return err
	}

	path, err := client.SaveImage(opts.OutputPath, res.Filename, res.PNG)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Request %d: %dx%d %s art (block %d) -> %s\n",
		res.RequestID, res.Width, res.Height, res.Mode, res.BlockSize, path)
	return nil
}
