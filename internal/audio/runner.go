// Package audio drives the external ffmpeg tool for the two audio operations
// the pipeline needs: lossless concatenation of staged segment files and
// pre-conversion of non-WAV reference clips. Audio data never passes through
// process memory; ffmpeg streams it on disk.
package audio

import (
	"context"
	"os/exec"
)

// DefaultFFmpegPath is used when the configuration does not name an ffmpeg
// binary explicitly.
const DefaultFFmpegPath = "ffmpeg"

// CommandRunner abstracts external process execution for testability.
type CommandRunner interface {
	// Run executes the command and returns its combined output.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner executes commands via os/exec.
type ExecRunner struct{}

// Run executes one command and captures its combined stdout and stderr.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	// #nosec G204 -- the command name comes from validated configuration and
	// the arguments are built internally.
	cmd := exec.CommandContext(ctx, name, args...)

	return cmd.CombinedOutput()
}
