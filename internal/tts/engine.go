package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-clone-service/internal/core"
)

// File and directory permissions.
const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

// HTTPEngine implements core.Synthesizer against the cloning HTTP service.
// Each call lands the returned audio on disk immediately; nothing larger
// than one segment's audio is ever held in memory.
type HTTPEngine struct {
	client *HTTPClient
	log    *logger.Logger
}

// NewHTTPEngine creates an engine backed by the given client.
func NewHTTPEngine(client *HTTPClient, log *logger.Logger) *HTTPEngine {
	return &HTTPEngine{
		client: client,
		log:    log,
	}
}

// SynthesizeToFile renders the request's text in the reference voice and
// writes the WAV result to req.OutputPath, creating parent directories as
// needed.
func (e *HTTPEngine) SynthesizeToFile(
	ctx context.Context,
	req core.SynthesisRequest,
) error {
	mkdirErr := os.MkdirAll(filepath.Dir(req.OutputPath), dirPermissions)
	if mkdirErr != nil {
		return fmt.Errorf("failed to create output directory: %w", mkdirErr)
	}

	audioData, cloneErr := e.client.CloneSpeech(ctx, Request{
		Text:              req.Text,
		SpeakerRefPath:    req.ReferencePath,
		Language:          req.Language,
		Temperature:       req.Params.Temperature,
		RepetitionPenalty: req.Params.RepetitionPenalty,
		Speed:             req.Params.Speed,
	})
	if cloneErr != nil {
		return fmt.Errorf("failed to clone speech: %w", cloneErr)
	}

	writeErr := os.WriteFile(req.OutputPath, audioData, filePermissions)
	if writeErr != nil {
		return fmt.Errorf("failed to write audio file: %w", writeErr)
	}

	e.log.Info("Generated audio: %s (%d bytes)", req.OutputPath, len(audioData))

	return nil
}
