package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kerosiinikone/pixelbubble/config"
	"github.com/kerosiinikone/pixelbubble/pipeline"
	"github.com/spf13/cobra"
)

// Options holds the render flags shared by render and upload
type Options struct {
	InputPath  string
	OutputPath string
	BlockSize  int
	Mode       string
}

var (
	// Cfg is loaded once in PersistentPreRunE and shared by subcommands
	Cfg *config.Config
	// configPath points at an optional YAML file
	configPath string
)

// Version is the application version.
const Version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:           "pixelbubble",
	Short:         "Turn photos into pixel art",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		Cfg = cfg
		return nil
	},
}

func Execute() {
	// Ctrl+C cancels whatever the command is doing
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pixelbubble: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
}

// bindRenderFlags registers the flags shared by render and upload.
func bindRenderFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.InputPath, "input", "i", "", "Path to the source image")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "Where to write the PNG (default pixel_art.png or ascii_art.png)")
	cmd.Flags().IntVarP(&opts.BlockSize, "block-size", "b", 0, "Mosaic block size in pixels, 1-50 (default from config, 10)")
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "Output mode: pixel or ascii (default from config)")
	cmd.MarkFlagRequired("input")
}

// params overlays the flags on the configured defaults.
func (o Options) params(cfg *config.Config) (pipeline.RenderParameters, error) {
	p, err := cfg.Params()
	if err != nil {
		return p, err
	}
	if o.BlockSize != 0 {
		p.BlockSize = o.BlockSize
	}
	if o.Mode != "" {
		m, err := pipeline.ParseMode(o.Mode)
		if err != nil {
			return p, err
		}
		p.Mode = m
	}
	return p, p.Validate()
}
