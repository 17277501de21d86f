package cmd

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/kerosiinikone/pixelbubble/config"
	"github.com/kerosiinikone/pixelbubble/pipeline"
)

func TestOptionsParams(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		name    string
		opts    Options
		want    pipeline.RenderParameters
		wantErr bool
	}{
		{
			name: "Defaults from config",
			opts: Options{},
			want: pipeline.DefaultParameters(),
		},
		{
			name: "Flags override",
			opts: Options{BlockSize: 4, Mode: "ascii"},
			want: pipeline.RenderParameters{BlockSize: 4, Mode: pipeline.ModeASCII, EdgeThreshold: 20},
		},
		{
			name:    "Block size out of range",
			opts:    Options{BlockSize: 80},
			wantErr: true,
		},
		{
			name:    "Unknown mode",
			opts:    Options{Mode: "oil"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.params(cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("params = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "photo.png")
	out := filepath.Join(dir, "art.png")
	if err := imaging.Save(imaging.New(120, 90, color.NRGBA{34, 139, 34, 255}), in); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"render", "-i", in, "-o", out, "-b", "6"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}

	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("opening output: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 90 {
		t.Errorf("output is %v, want 120x90", b)
	}
}

func TestRenderCommandDataURI(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "photo.png")
	if err := imaging.Save(imaging.New(10, 10, color.NRGBA{0, 0, 0, 255}), in); err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	defer rootCmd.SetOut(os.Stdout)
	rootCmd.SetArgs([]string{"render", "-i", in, "--data-uri"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("render: %v", err)
	}
	renderDataURI = false

	if !strings.HasPrefix(stdout.String(), "data:image/png;base64,") {
		t.Errorf("stdout = %.40q", stdout.String())
	}
}
