package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/logger"
)

// Supported reference audio extensions.
const (
	extWAV  = ".wav"
	extMP3  = ".mp3"
	extFLAC = ".flac"
	extOGG  = ".ogg"
	extM4A  = ".m4a"
)

// Conversion target for non-WAV references. The synthesis engine resamples
// internally, so a standard mono PCM WAV is all it needs.
const (
	convertSampleRate = "22050"
	convertChannels   = "1"
	convertCodec      = "pcm_s16le"
)

// Static errors.
var (
	// ErrReferenceNotFound indicates the reference audio file does not exist
	// or cannot be read.
	ErrReferenceNotFound = errors.New("reference audio file not found")
	// ErrUnsupportedAudioFormat indicates the reference file extension is not
	// in the supported set.
	ErrUnsupportedAudioFormat = errors.New("unsupported reference audio format")
)

// ValidateReference checks that the reference clip exists and carries a
// supported audio extension.
func ValidateReference(path string) error {
	_, statErr := os.Stat(path)
	if statErr != nil {
		return fmt.Errorf("%w: %s: %w", ErrReferenceNotFound, path, statErr)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case extWAV, extMP3, extFLAC, extOGG, extM4A:
		return nil
	default:
		return fmt.Errorf(
			"%w: %q",
			ErrUnsupportedAudioFormat,
			filepath.Ext(path),
		)
	}
}

// ReferencePreparer converts non-WAV reference clips to a temporary WAV file
// for engine compatibility.
type ReferencePreparer struct {
	runner     CommandRunner
	log        *logger.Logger
	ffmpegPath string
}

// NewReferencePreparer creates a preparer that shells out to the given ffmpeg
// binary.
func NewReferencePreparer(ffmpegPath string, log *logger.Logger) *ReferencePreparer {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpegPath
	}

	return &ReferencePreparer{
		ffmpegPath: ffmpegPath,
		runner:     ExecRunner{},
		log:        log,
	}
}

// NewReferencePreparerWithRunner creates a preparer with a custom command
// runner. This constructor is primarily for testing.
func NewReferencePreparerWithRunner(
	ffmpegPath string,
	runner CommandRunner,
	log *logger.Logger,
) *ReferencePreparer {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpegPath
	}

	return &ReferencePreparer{
		ffmpegPath: ffmpegPath,
		runner:     runner,
		log:        log,
	}
}

// Prepare returns a WAV path for the reference clip. WAV inputs pass through
// untouched. Other formats are converted to a temporary WAV; temporary is
// true when the caller owns the returned file and should remove it after the
// run. If conversion fails the original file is returned with a warning, on
// the chance the engine can read it anyway.
func (p *ReferencePreparer) Prepare(
	ctx context.Context,
	referencePath string,
) (wavPath string, temporary bool, err error) {
	validateErr := ValidateReference(referencePath)
	if validateErr != nil {
		return "", false, validateErr
	}

	if strings.EqualFold(filepath.Ext(referencePath), extWAV) {
		return referencePath, false, nil
	}

	tempFile, createErr := os.CreateTemp("", "voice-ref-*.wav")
	if createErr != nil {
		return "", false, fmt.Errorf(
			"failed to create temp file for reference conversion: %w",
			createErr,
		)
	}

	tempPath := tempFile.Name()

	closeErr := tempFile.Close()
	if closeErr != nil {
		return "", false, fmt.Errorf("failed to close temp file: %w", closeErr)
	}

	args := []string{
		"-i", referencePath,
		"-y",
		"-acodec", convertCodec,
		"-ar", convertSampleRate,
		"-ac", convertChannels,
		tempPath,
	}

	output, runErr := p.runner.Run(ctx, p.ffmpegPath, args...)
	if runErr != nil {
		p.log.Warn(
			"Reference conversion failed, using original file %s: %v - output: %s",
			referencePath,
			runErr,
			string(output),
		)

		removeErr := os.Remove(tempPath)
		if removeErr != nil {
			p.log.Warn("Failed to remove temp file '%s': %v", tempPath, removeErr)
		}

		return referencePath, false, nil
	}

	return tempPath, true, nil
}
