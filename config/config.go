package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kerosiinikone/pixelbubble/pipeline"
	"gopkg.in/yaml.v2"
)

// Server is where the engine listens and where clients dial.
type Server struct {
	Addr string `yaml:"address"`
	Port int    `yaml:"port"`
}

// Pipeline holds the defaults for every render.
type Pipeline struct {
	MaxDimension    int     `yaml:"max_dimension"`
	MaxSourcePixels int     `yaml:"max_source_pixels"`
	BlockSize       int     `yaml:"block_size"`
	EdgeThreshold   float64 `yaml:"edge_threshold"`
	Mode            string  `yaml:"mode"`
}

// Transport tunes the chunked image stream.
type Transport struct {
	ChunkSize   int           `yaml:"chunk_size"`
	Compression string        `yaml:"compression"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Config holds addresses, ports and pipeline defaults
type Config struct {
	Server    Server    `yaml:"server"`
	Pipeline  Pipeline  `yaml:"pipeline"`
	Transport Transport `yaml:"transport"`
}

func Default() *Config {
	return &Config{
		Server: Server{
			Addr: "localhost",
			Port: 3000,
		},
		Pipeline: Pipeline{
			MaxDimension:    pipeline.DefaultMaxDimension,
			MaxSourcePixels: pipeline.DefaultMaxSourcePixels,
			BlockSize:       pipeline.DefaultBlockSize,
			EdgeThreshold:   pipeline.DefaultEdgeThreshold,
			Mode:            string(pipeline.ModePixel),
		},
		Transport: Transport{
			ChunkSize: 64 * 1024,
			Timeout:   30 * time.Second,
		},
	}
}

// Load reads a YAML file over the defaults. An empty path skips the file.
// PIXELBUBBLE_ADDRESS and PIXELBUBBLE_PORT override the server section.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if addr := os.Getenv("PIXELBUBBLE_ADDRESS"); addr != "" {
		cfg.Server.Addr = addr
	}
	if port := os.Getenv("PIXELBUBBLE_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("PIXELBUBBLE_PORT: %w", err)
		}
		cfg.Server.Port = p
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Pipeline.MaxDimension <= 0 {
		return fmt.Errorf("pipeline.max_dimension must be positive, got %d", c.Pipeline.MaxDimension)
	}
	if c.Pipeline.MaxSourcePixels <= 0 {
		return fmt.Errorf("pipeline.max_source_pixels must be positive, got %d", c.Pipeline.MaxSourcePixels)
	}
	if c.Pipeline.EdgeThreshold < 0 {
		return fmt.Errorf("pipeline.edge_threshold must not be negative, got %g", c.Pipeline.EdgeThreshold)
	}
	if _, err := c.Params(); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if c.Transport.ChunkSize <= 0 {
		return fmt.Errorf("transport.chunk_size must be positive, got %d", c.Transport.ChunkSize)
	}
	switch c.Transport.Compression {
	case "", "zstd":
	default:
		return fmt.Errorf("transport.compression %q not supported", c.Transport.Compression)
	}
	return nil
}

// Address is host:port for listening and dialing.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Addr, c.Server.Port)
}

// DecodeOptions converts the pipeline section for pipeline.DecodeAndScale.
func (c *Config) DecodeOptions() pipeline.DecodeOptions {
	return pipeline.DecodeOptions{
		MaxDimension:    c.Pipeline.MaxDimension,
		MaxSourcePixels: c.Pipeline.MaxSourcePixels,
	}
}

// Params converts the pipeline section to validated render parameters.
func (c *Config) Params() (pipeline.RenderParameters, error) {
	mode, err := pipeline.ParseMode(c.Pipeline.Mode)
	if err != nil {
		return pipeline.RenderParameters{}, err
	}
	p := pipeline.RenderParameters{
		BlockSize:     c.Pipeline.BlockSize,
		Mode:          mode,
		EdgeThreshold: c.Pipeline.EdgeThreshold,
	}
	return p, p.Validate()
}
