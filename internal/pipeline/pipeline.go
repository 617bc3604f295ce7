// Package pipeline drives long-text voice cloning: segmentation, per-segment
// synthesis with crash-resumable disk staging, and streaming concatenation of
// the staged parts into the final output file.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-clone-service/internal/audio"
	"github.com/book-expert/voice-clone-service/internal/core"
	"github.com/book-expert/voice-clone-service/internal/segmenter"
	"github.com/book-expert/voice-clone-service/internal/staging"
)

// DefaultLongTextChars is the character-count cutoff, applied to the original
// text before segmentation, above which the staged long-text path is taken.
const DefaultLongTextChars = 500

// Static errors.
var (
	// ErrTextEmpty indicates there is no text to synthesize.
	ErrTextEmpty = errors.New("no text provided for synthesis")
	// ErrOutputPathEmpty indicates a missing output path.
	ErrOutputPathEmpty = errors.New("output path cannot be empty")
	// ErrSegmentNotStaged indicates the engine reported success but left no
	// staged artifact behind.
	ErrSegmentNotStaged = errors.New("segment reported success but is not staged")
)

// Job describes one voice cloning run.
type Job struct {
	Text          string
	ReferencePath string
	Language      string
	OutputPath    string
	Params        core.GenerationParams
}

// SegmentOutcome classifies what happened to one segment during a run.
type SegmentOutcome string

// Segment outcomes.
const (
	// OutcomeSynthesized means the engine was invoked and the segment was
	// staged during this run.
	OutcomeSynthesized SegmentOutcome = "synthesized"
	// OutcomeResumed means a previous run already staged the segment, so
	// the engine was not invoked.
	OutcomeResumed SegmentOutcome = "resumed"
	// OutcomeSkipped means synthesis failed and the segment was left
	// unstaged. Re-running the pipeline picks it up.
	OutcomeSkipped SegmentOutcome = "skipped"
)

// SegmentResult is the explicit per-segment result the orchestrator
// aggregates; proceeding past a failed segment is a visible policy, not an
// implicit catch.
type SegmentResult struct {
	Err     error
	Outcome SegmentOutcome
	Index   int
}

// Report summarizes a run. A run with missing indices still produced an
// output file; the missing passages are simply absent from it.
type Report struct {
	StagingDir     string
	Results        []SegmentResult
	MissingIndices []int
	TotalSegments  int
	Synthesized    int
	Resumed        int
}

// Complete reports whether every segment made it into the output.
func (r *Report) Complete() bool {
	return len(r.MissingIndices) == 0
}

// StoreFactory builds the segment store for a staging directory. Injectable
// so the resume invariant is testable without real disk I/O.
type StoreFactory func(dir string) core.SegmentStore

// Options tunes the pipeline thresholds. Zero values select the defaults.
type Options struct {
	MinChunkChars int
	LongTextChars int
}

// Pipeline orchestrates a voice cloning run. Synthesis is strictly
// sequential: the engine is a resource-heavy, non-reentrant collaborator, so
// segments are processed one at a time in increasing index order.
type Pipeline struct {
	synth    core.Synthesizer
	concat   core.Concatenator
	newStore StoreFactory
	log      *logger.Logger
	options  Options
}

// New creates a pipeline staging to directories on disk.
func New(
	synth core.Synthesizer,
	concat core.Concatenator,
	log *logger.Logger,
	options Options,
) *Pipeline {
	return NewWithStoreFactory(synth, concat, diskStoreFactory, log, options)
}

// NewWithStoreFactory creates a pipeline with a custom segment store factory.
// This constructor is primarily for testing.
func NewWithStoreFactory(
	synth core.Synthesizer,
	concat core.Concatenator,
	newStore StoreFactory,
	log *logger.Logger,
	options Options,
) *Pipeline {
	if options.MinChunkChars <= 0 {
		options.MinChunkChars = segmenter.DefaultMinChunkChars
	}

	if options.LongTextChars <= 0 {
		options.LongTextChars = DefaultLongTextChars
	}

	return &Pipeline{
		synth:    synth,
		concat:   concat,
		newStore: newStore,
		log:      log,
		options:  options,
	}
}

func diskStoreFactory(dir string) core.SegmentStore {
	return staging.NewDirStore(dir)
}

// Run executes the job and returns a report of what was synthesized, resumed,
// and skipped. Input validation failures abort before any synthesis work
// begins. A nil error means the output file was produced, possibly with
// passages missing when Report.Complete is false.
func (p *Pipeline) Run(ctx context.Context, job Job) (*Report, error) {
	validateErr := p.validateJob(job)
	if validateErr != nil {
		return nil, validateErr
	}

	// The long-text decision is made on the original text, before
	// segmentation.
	if utf8.RuneCountInString(job.Text) <= p.options.LongTextChars {
		return p.runSingle(ctx, job)
	}

	segments := segmenter.Split(job.Text, p.options.MinChunkChars)
	if len(segments) <= 1 {
		return p.runSingle(ctx, job)
	}

	return p.runStaged(ctx, job, segments)
}

func (p *Pipeline) validateJob(job Job) error {
	if strings.TrimSpace(job.Text) == "" {
		return ErrTextEmpty
	}

	if job.OutputPath == "" {
		return ErrOutputPathEmpty
	}

	languageErr := core.ValidateLanguage(job.Language)
	if languageErr != nil {
		return languageErr
	}

	referenceErr := audio.ValidateReference(job.ReferencePath)
	if referenceErr != nil {
		return referenceErr
	}

	return nil
}

// runSingle is the short-text path: one synthesis call directly against the
// final output path, no staging directory.
func (p *Pipeline) runSingle(ctx context.Context, job Job) (*Report, error) {
	synthErr := p.synth.SynthesizeToFile(ctx, core.SynthesisRequest{
		Text:          strings.TrimSpace(job.Text),
		ReferencePath: job.ReferencePath,
		Language:      job.Language,
		Params:        job.Params,
		OutputPath:    job.OutputPath,
	})
	if synthErr != nil {
		return nil, fmt.Errorf("synthesis failed: %w", synthErr)
	}

	return &Report{
		TotalSegments: 1,
		Synthesized:   1,
		Results: []SegmentResult{
			{Index: 1, Outcome: OutcomeSynthesized},
		},
	}, nil
}

// runStaged is the long-text path: every segment's audio lands on disk
// immediately, then the staged parts are joined without decoding.
func (p *Pipeline) runStaged(
	ctx context.Context,
	job Job,
	segments []segmenter.Segment,
) (*Report, error) {
	stagingDir := filepath.Join(filepath.Dir(job.OutputPath), staging.DirName)
	store := p.newStore(stagingDir)

	initErr := store.Init()
	if initErr != nil {
		return nil, initErr
	}

	p.log.Info(
		"Long text detected (%d segments). Staging parts to: %s",
		len(segments),
		store.Dir(),
	)

	report := &Report{
		TotalSegments: len(segments),
		StagingDir:    store.Dir(),
	}

	var stagedPaths []string

	for _, segment := range segments {
		result := p.processSegment(ctx, job, store, segment, len(segments))
		report.Results = append(report.Results, result)

		switch result.Outcome {
		case OutcomeSynthesized:
			report.Synthesized++

			stagedPaths = append(stagedPaths, store.Path(segment.Index))
		case OutcomeResumed:
			report.Resumed++

			stagedPaths = append(stagedPaths, store.Path(segment.Index))
		case OutcomeSkipped:
			report.MissingIndices = append(
				report.MissingIndices,
				segment.Index,
			)
		}
	}

	if !report.Complete() {
		p.log.Warn(
			"%d of %d segments missing from output (indices %v)",
			len(report.MissingIndices),
			report.TotalSegments,
			report.MissingIndices,
		)
	}

	joinErr := p.concat.Join(ctx, stagedPaths, job.OutputPath)
	if joinErr != nil {
		p.log.Error(
			"Concatenation failed; staged parts remain in %s for manual recovery",
			store.Dir(),
		)

		return report, fmt.Errorf(
			"failed to join staged segments (parts kept in %s): %w",
			store.Dir(),
			joinErr,
		)
	}

	return report, nil
}

// processSegment stages one segment. The staged-file check runs before any
// engine call so resumed runs never re-synthesize completed segments, and a
// synthesis failure skips the segment rather than aborting the run.
func (p *Pipeline) processSegment(
	ctx context.Context,
	job Job,
	store core.SegmentStore,
	segment segmenter.Segment,
	total int,
) SegmentResult {
	completed, checkErr := store.Completed(segment.Index)
	if checkErr != nil {
		p.log.Error("Segment %d/%d staging check failed: %v",
			segment.Index, total, checkErr)

		return SegmentResult{
			Index:   segment.Index,
			Outcome: OutcomeSkipped,
			Err:     checkErr,
		}
	}

	if completed {
		p.log.Info("Skipping segment %d/%d (already staged)",
			segment.Index, total)

		return SegmentResult{Index: segment.Index, Outcome: OutcomeResumed}
	}

	p.log.Info("Processing segment %d/%d", segment.Index, total)

	synthErr := p.synth.SynthesizeToFile(ctx, core.SynthesisRequest{
		Text:          segment.Text,
		ReferencePath: job.ReferencePath,
		Language:      job.Language,
		Params:        job.Params,
		OutputPath:    store.Path(segment.Index),
	})
	if synthErr != nil {
		p.log.Error("Segment %d/%d failed: %v", segment.Index, total, synthErr)

		return SegmentResult{
			Index:   segment.Index,
			Outcome: OutcomeSkipped,
			Err:     synthErr,
		}
	}

	// The store is the completion authority: count the segment only if the
	// engine actually left a non-empty artifact behind.
	staged, stagedErr := store.Completed(segment.Index)
	if stagedErr != nil || !staged {
		p.log.Error("Segment %d/%d reported success but is not staged",
			segment.Index, total)

		if stagedErr == nil {
			stagedErr = fmt.Errorf("%w: segment %d", ErrSegmentNotStaged,
				segment.Index)
		}

		return SegmentResult{
			Index:   segment.Index,
			Outcome: OutcomeSkipped,
			Err:     stagedErr,
		}
	}

	return SegmentResult{Index: segment.Index, Outcome: OutcomeSynthesized}
}
