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

// Manifest file name, written into the staging directory for the duration of
// the join.
const manifestFileName = "input_list.txt"

const manifestFilePermissions = 0o600

// Static errors.
var (
	// ErrConcat is the error kind for every concatenation failure. On
	// failure the staged input files are left on disk for manual recovery.
	ErrConcat = errors.New("audio concatenation failed")
	// ErrNoInputFiles indicates the join was invoked with zero staged files.
	ErrNoInputFiles = errors.New("no staged audio files to concatenate")
)

// Concatenator joins ordered, same-format WAV files into one output file
// using ffmpeg's concat demuxer with stream copy. Memory use is constant in
// the input size; only the join-order manifest scales with segment count.
type Concatenator struct {
	runner     CommandRunner
	log        *logger.Logger
	ffmpegPath string
}

// NewConcatenator creates a concatenator that shells out to the given ffmpeg
// binary.
func NewConcatenator(ffmpegPath string, log *logger.Logger) *Concatenator {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpegPath
	}

	return &Concatenator{
		ffmpegPath: ffmpegPath,
		runner:     ExecRunner{},
		log:        log,
	}
}

// NewConcatenatorWithRunner creates a concatenator with a custom command
// runner. This constructor is primarily for testing.
func NewConcatenatorWithRunner(
	ffmpegPath string,
	runner CommandRunner,
	log *logger.Logger,
) *Concatenator {
	if ffmpegPath == "" {
		ffmpegPath = DefaultFFmpegPath
	}

	return &Concatenator{
		ffmpegPath: ffmpegPath,
		runner:     runner,
		log:        log,
	}
}

// Join concatenates the input files, in the given order, into outputPath.
// It fails without touching the inputs when the list is empty or when ffmpeg
// is unavailable or exits non-zero; in every failure case the staged files
// remain on disk.
func (c *Concatenator) Join(
	ctx context.Context,
	inputPaths []string,
	outputPath string,
) error {
	if len(inputPaths) == 0 {
		return fmt.Errorf("%w: %w", ErrConcat, ErrNoInputFiles)
	}

	manifestPath := filepath.Join(filepath.Dir(inputPaths[0]), manifestFileName)

	writeErr := writeManifest(manifestPath, inputPaths)
	if writeErr != nil {
		return fmt.Errorf("%w: %w", ErrConcat, writeErr)
	}

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		"-y", outputPath,
	}

	output, runErr := c.runner.Run(ctx, c.ffmpegPath, args...)
	if runErr != nil {
		return fmt.Errorf(
			"%w: ffmpeg exited with error: %w - output: %s",
			ErrConcat,
			runErr,
			string(output),
		)
	}

	// The manifest is transient; staged parts stay until the caller decides
	// the run is satisfactory.
	removeErr := os.Remove(manifestPath)
	if removeErr != nil {
		c.log.Warn("Failed to remove join manifest '%s': %v", manifestPath, removeErr)
	}

	return nil
}

// writeManifest writes the concat demuxer list file, one absolute path per
// line. ffmpeg requires forward slashes regardless of platform.
func writeManifest(manifestPath string, inputPaths []string) error {
	var builder strings.Builder

	for _, inputPath := range inputPaths {
		absPath, absErr := filepath.Abs(inputPath)
		if absErr != nil {
			return fmt.Errorf(
				"could not resolve absolute path for %q: %w",
				inputPath,
				absErr,
			)
		}

		fmt.Fprintf(&builder, "file '%s'\n", filepath.ToSlash(absPath))
	}

	writeErr := os.WriteFile(
		manifestPath,
		[]byte(builder.String()),
		manifestFilePermissions,
	)
	if writeErr != nil {
		return fmt.Errorf("failed to write join manifest: %w", writeErr)
	}

	return nil
}
