package tts_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-clone-service/internal/core"
	"github.com/book-expert/voice-clone-service/internal/tts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngineTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "engine-test.log")
	require.NoError(t, err)

	return log
}

func TestHTTPEngine_SynthesizeToFile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.Header().Set("Content-Type", "audio/wav")

			_, _ = responseWriter.Write([]byte(testAudioData))
		},
	))
	defer server.Close()

	client := tts.NewHTTPClient(server.URL, 10*time.Second)
	engine := tts.NewHTTPEngine(client, newEngineTestLogger(t))

	outputPath := filepath.Join(t.TempDir(), "nested", "part_0001.wav")

	err := engine.SynthesizeToFile(context.Background(), core.SynthesisRequest{
		Text:          "A short segment.",
		ReferencePath: "/voices/adam.wav",
		Language:      "en",
		Params: core.GenerationParams{
			Temperature:       0.75,
			RepetitionPenalty: 10.0,
			Speed:             1.0,
		},
		OutputPath: outputPath,
	})
	require.NoError(t, err)

	written, readErr := os.ReadFile(outputPath)
	require.NoError(t, readErr)
	assert.Equal(t, testAudioData, string(written))
}

func TestHTTPEngine_SynthesizeToFile_ServiceFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(responseWriter http.ResponseWriter, _ *http.Request) {
			responseWriter.WriteHeader(http.StatusBadGateway)
		},
	))
	defer server.Close()

	client := tts.NewHTTPClient(server.URL, 10*time.Second)
	engine := tts.NewHTTPEngine(client, newEngineTestLogger(t))

	outputPath := filepath.Join(t.TempDir(), "part_0001.wav")

	err := engine.SynthesizeToFile(context.Background(), core.SynthesisRequest{
		Text:       "A short segment.",
		Language:   "en",
		OutputPath: outputPath,
	})
	require.Error(t, err)

	// A failed call must not leave a file that looks like a completed
	// segment.
	_, statErr := os.Stat(outputPath)
	assert.True(t, os.IsNotExist(statErr))
}
