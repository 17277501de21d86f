package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kerosiinikone/pixelbubble/pipeline"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pixelbubble.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address() != "localhost:3000" {
		t.Errorf("Address = %q", cfg.Address())
	}
	p, err := cfg.Params()
	if err != nil {
		t.Fatalf("Params: %v", err)
	}
	if p != pipeline.DefaultParameters() {
		t.Errorf("Params = %+v, want %+v", p, pipeline.DefaultParameters())
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  address: 0.0.0.0
  port: 4100
pipeline:
  block_size: 16
  mode: ascii
transport:
  chunk_size: 1024
  compression: zstd
  timeout: 5s
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address() != "0.0.0.0:4100" {
		t.Errorf("Address = %q", cfg.Address())
	}
	if cfg.Pipeline.BlockSize != 16 || cfg.Pipeline.Mode != "ascii" {
		t.Errorf("Pipeline = %+v", cfg.Pipeline)
	}
	// unset keys keep their defaults
	if cfg.Pipeline.MaxDimension != 800 || cfg.Pipeline.EdgeThreshold != 20 {
		t.Errorf("defaults lost: %+v", cfg.Pipeline)
	}
	if cfg.Transport.Timeout != 5*time.Second || cfg.Transport.Compression != "zstd" {
		t.Errorf("Transport = %+v", cfg.Transport)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PIXELBUBBLE_ADDRESS", "127.0.0.1")
	t.Setenv("PIXELBUBBLE_PORT", "5005")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address() != "127.0.0.1:5005" {
		t.Errorf("Address = %q", cfg.Address())
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"block size":  "pipeline:\n  block_size: 0\n",
		"mode":        "pipeline:\n  mode: sepia\n",
		"threshold":   "pipeline:\n  edge_threshold: -1\n",
		"compression": "transport:\n  compression: brotli\n",
		"unknown key": "pipeline:\n  palette: warm\n",
		"port":        "server:\n  port: 70000\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading config") {
		t.Fatalf("err = %v", err)
	}
}
