// Package config provides the configuration structure for the voice-clone
// service.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/book-expert/voice-clone-service/internal/pipeline"
	"github.com/book-expert/voice-clone-service/internal/segmenter"
)

// Default synthesis service timeout, in seconds. Segment synthesis on
// CPU-only hosts is slow.
const defaultTimeoutSeconds = 300

// SynthesisConfig holds the connection settings for the external cloning
// service.
type SynthesisConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// PipelineConfig tunes the long-text pipeline.
type PipelineConfig struct {
	FFmpegPath    string `toml:"ffmpeg_path"`
	MinChunkChars int    `toml:"min_chunk_chars"`
	LongTextChars int    `toml:"long_text_chars"`
}

// NATSConfig holds the configuration for the NATS worker.
type NATSConfig struct {
	URL               string `toml:"url"`
	CloneJobSubject   string `toml:"clone_job_subject"`
	ObjectStoreBucket string `toml:"object_store_bucket"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	OutputDir   string `toml:"output_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Synthesis SynthesisConfig `toml:"synthesis_service"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	NATS      NATSConfig      `toml:"nats"`
	Paths     PathsConfig     `toml:"paths"`
}

// Load loads the configuration for the voice-clone service and fills in
// defaults for unset tuning values.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyDefaults fills unset tuning values with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Synthesis.TimeoutSeconds <= 0 {
		c.Synthesis.TimeoutSeconds = defaultTimeoutSeconds
	}

	if c.Pipeline.MinChunkChars <= 0 {
		c.Pipeline.MinChunkChars = segmenter.DefaultMinChunkChars
	}

	if c.Pipeline.LongTextChars <= 0 {
		c.Pipeline.LongTextChars = pipeline.DefaultLongTextChars
	}
}
