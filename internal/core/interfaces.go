// Package core defines the interfaces and shared types for the voice-clone service.
package core

import "context"

// GenerationParams controls the variability and stability of synthesized speech.
// Produced by the preset resolver; treated as immutable once handed to a synthesizer.
type GenerationParams struct {
	Temperature       float64
	RepetitionPenalty float64
	Speed             float64
}

// SynthesisRequest describes one synthesis call against the external engine.
type SynthesisRequest struct {
	// Text is the passage to render. Must be non-empty.
	Text string

	// ReferencePath points at the reference audio clip whose voice is cloned.
	ReferencePath string

	// Language is one of the supported language codes (see languages.go).
	Language string

	// Params tunes generation variability.
	Params GenerationParams

	// OutputPath is where the resulting WAV file is written.
	OutputPath string
}

// Synthesizer is the boundary to the external text-to-speech capability.
// Implementations render the request's text in the reference voice and write
// the audio to OutputPath.
type Synthesizer interface {
	SynthesizeToFile(ctx context.Context, req SynthesisRequest) error
}

// SegmentStore is an index-addressed staging map for per-segment audio
// artifacts. A segment is complete if and only if the store reports it as
// completed; implementations must never overwrite a completed entry.
type SegmentStore interface {
	// Init prepares the store for writing. Must be idempotent.
	Init() error

	// Dir returns the location holding the staged artifacts, for reporting
	// and manual recovery.
	Dir() string

	// Path returns the artifact path for the 1-based segment index.
	Path(index int) string

	// Completed reports whether the segment's artifact exists and is
	// non-empty.
	Completed(index int) (bool, error)
}

// Concatenator joins ordered, same-format staged audio files into one output
// file using a streaming copy, never decoding audio into process memory.
type Concatenator interface {
	Join(ctx context.Context, inputPaths []string, outputPath string) error
}

// ObjectStore is the interface to a key-value blob store used by the worker
// for job inputs and results.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}
