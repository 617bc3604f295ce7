// Package worker provides a NATS worker that processes voice-clone jobs.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/voice-clone-service/internal/core"
	"github.com/book-expert/voice-clone-service/internal/params"
	"github.com/book-expert/voice-clone-service/internal/pipeline"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// A whole long-text run can take many minutes on CPU-only hosts.
const handleMessageTimeout = 30 * time.Minute

const (
	workdirPattern  = "voice-clone-job-*"
	outputFileName  = "output.wav"
	filePermissions = 0o600
)

// CloneRequestedEvent is the job envelope consumed from the clone-job
// subject. Text and reference audio are passed by object-store key, not
// inline, so the message stays small.
type CloneRequestedEvent struct {
	Header            events.EventHeader `json:"header"`
	TextKey           string             `json:"text_key"`
	ReferenceKey      string             `json:"reference_key"`
	Language          string             `json:"language,omitempty"`
	Preset            string             `json:"preset,omitempty"`
	Temperature       *float64           `json:"temperature,omitempty"`
	RepetitionPenalty *float64           `json:"repetition_penalty,omitempty"`
	Speed             *float64           `json:"speed,omitempty"`
}

// CloneCompletedEvent is the reply published when a job finishes. A job with
// missing segments still carries an audio key; the missing indices make the
// partial completion observable to the requester.
type CloneCompletedEvent struct {
	Header          events.EventHeader `json:"header"`
	AudioKey        string             `json:"audio_key"`
	MissingSegments []int              `json:"missing_segments,omitempty"`
	TotalSegments   int                `json:"total_segments"`
}

// VoiceCloner runs one cloning job. Implemented by pipeline.Pipeline.
type VoiceCloner interface {
	Run(ctx context.Context, job pipeline.Job) (*pipeline.Report, error)
}

// NatsWorker listens for voice-clone jobs on a NATS subject and processes
// them strictly one at a time; the synthesis engine behind the pipeline is
// not reentrant.
type NatsWorker struct {
	natsConnection *nats.Conn
	store          core.ObjectStore
	cloner         VoiceCloner
	log            *logger.Logger
	subject        string
}

// NewNatsWorker creates a new instance of a NATS worker.
func NewNatsWorker(
	natsConnection *nats.Conn,
	subject string,
	store core.ObjectStore,
	cloner VoiceCloner,
	log *logger.Logger,
) (*NatsWorker, error) {
	return &NatsWorker{
		natsConnection: natsConnection,
		subject:        subject,
		store:          store,
		cloner:         cloner,
		log:            log,
	}, nil
}

// Run starts the worker and begins listening for messages until the context
// is cancelled.
func (w *NatsWorker) Run(ctx context.Context) error {
	sub, err := w.natsConnection.Subscribe(w.subject, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	var event CloneRequestedEvent

	unmarshalErr := json.Unmarshal(msg.Data, &event)
	if unmarshalErr != nil {
		w.log.Error("Failed to unmarshal clone job event: %v", unmarshalErr)

		return
	}

	reply, processErr := w.processCloneJob(ctx, &event)
	if processErr != nil {
		w.log.Error(
			"Failed to process clone job for workflow %s: %v",
			event.Header.WorkflowID,
			processErr,
		)

		return
	}

	publishErr := w.publishReplyEvent(msg, reply)
	if publishErr != nil {
		w.log.Error(
			"Failed to publish reply event for workflow %s: %v",
			event.Header.WorkflowID,
			publishErr,
		)
	}
}

// processCloneJob downloads the job inputs, runs the pipeline in a private
// working directory, and uploads the finished audio.
func (w *NatsWorker) processCloneJob(
	ctx context.Context,
	event *CloneRequestedEvent,
) (*CloneCompletedEvent, error) {
	generation, resolveErr := params.Resolve(event.Preset, params.Overrides{
		Temperature:       event.Temperature,
		RepetitionPenalty: event.RepetitionPenalty,
		Speed:             event.Speed,
	})
	if resolveErr != nil {
		return nil, resolveErr
	}

	language := event.Language
	if language == "" {
		language = core.DefaultLanguage
	}

	languageErr := core.ValidateLanguage(language)
	if languageErr != nil {
		return nil, languageErr
	}

	workdir, tempErr := os.MkdirTemp("", workdirPattern)
	if tempErr != nil {
		return nil, fmt.Errorf("failed to create job working directory: %w", tempErr)
	}

	defer func() {
		removeErr := os.RemoveAll(workdir)
		if removeErr != nil {
			w.log.Warn("Failed to remove job workdir '%s': %v", workdir, removeErr)
		}
	}()

	text, referencePath, stageErr := w.stageInputs(ctx, event, workdir)
	if stageErr != nil {
		return nil, stageErr
	}

	outputPath := filepath.Join(workdir, outputFileName)

	report, runErr := w.cloner.Run(ctx, pipeline.Job{
		Text:          text,
		ReferencePath: referencePath,
		Language:      language,
		OutputPath:    outputPath,
		Params:        generation,
	})
	if runErr != nil {
		return nil, fmt.Errorf("pipeline run failed: %w", runErr)
	}

	audioData, readErr := os.ReadFile(outputPath)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read pipeline output: %w", readErr)
	}

	audioKey := uuid.NewString() + ".wav"

	uploadErr := w.store.Upload(ctx, audioKey, audioData)
	if uploadErr != nil {
		return nil, fmt.Errorf(
			"failed to upload audio data for key '%s': %w",
			audioKey,
			uploadErr,
		)
	}

	return &CloneCompletedEvent{
		Header:          event.Header,
		AudioKey:        audioKey,
		TotalSegments:   report.TotalSegments,
		MissingSegments: report.MissingIndices,
	}, nil
}

// stageInputs materializes the job text and reference clip from the object
// store into the working directory. The reference keeps its original
// extension so format validation still applies.
func (w *NatsWorker) stageInputs(
	ctx context.Context,
	event *CloneRequestedEvent,
	workdir string,
) (text string, referencePath string, err error) {
	textData, textErr := w.store.Download(ctx, event.TextKey)
	if textErr != nil {
		return "", "", fmt.Errorf(
			"failed to download text for key '%s': %w",
			event.TextKey,
			textErr,
		)
	}

	referenceData, refErr := w.store.Download(ctx, event.ReferenceKey)
	if refErr != nil {
		return "", "", fmt.Errorf(
			"failed to download reference audio for key '%s': %w",
			event.ReferenceKey,
			refErr,
		)
	}

	referencePath = filepath.Join(
		workdir,
		"reference"+filepath.Ext(event.ReferenceKey),
	)

	writeErr := os.WriteFile(referencePath, referenceData, filePermissions)
	if writeErr != nil {
		return "", "", fmt.Errorf("failed to write reference clip: %w", writeErr)
	}

	return string(textData), referencePath, nil
}

// publishReplyEvent marshals and responds with the CloneCompletedEvent.
func (w *NatsWorker) publishReplyEvent(
	msg *nats.Msg,
	replyEvent *CloneCompletedEvent,
) error {
	replyData, marshalErr := json.Marshal(replyEvent)
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal reply event: %w", marshalErr)
	}

	respondErr := msg.Respond(replyData)
	if respondErr != nil {
		return fmt.Errorf("failed to publish reply event: %w", respondErr)
	}

	return nil
}
