// Package config_test tests the configuration loading for the voice-clone
// service.
package config_test

import (
	"testing"

	"github.com/book-expert/voice-clone-service/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[synthesis_service]
base_url = "http://127.0.0.1:8020"
timeout_seconds = 120

[pipeline]
ffmpeg_path = "/usr/bin/ffmpeg"
min_chunk_chars = 250
long_text_chars = 500

[nats]
url = "nats://127.0.0.1:4222"
clone_job_subject = "voice.clone.requested"
object_store_bucket = "VOICE_CLONE_FILES"

[paths]
base_logs_dir = "/var/log/voice-clone"
output_dir = "/srv/voice-clone/output"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8020", cfg.Synthesis.BaseURL)
	assert.Equal(t, 120, cfg.Synthesis.TimeoutSeconds)
	assert.Equal(t, "/usr/bin/ffmpeg", cfg.Pipeline.FFmpegPath)
	assert.Equal(t, 250, cfg.Pipeline.MinChunkChars)
	assert.Equal(t, 500, cfg.Pipeline.LongTextChars)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "voice.clone.requested", cfg.NATS.CloneJobSubject)
	assert.Equal(t, "VOICE_CLONE_FILES", cfg.NATS.ObjectStoreBucket)
	assert.Equal(t, "/var/log/voice-clone", cfg.Paths.BaseLogsDir)
	assert.Equal(t, "/srv/voice-clone/output", cfg.Paths.OutputDir)
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	cfg.ApplyDefaults()

	assert.Equal(t, 300, cfg.Synthesis.TimeoutSeconds)
	assert.Equal(t, 250, cfg.Pipeline.MinChunkChars)
	assert.Equal(t, 500, cfg.Pipeline.LongTextChars)
}
