// Package worker_test tests the NATS worker for the voice-clone service.
package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/voice-clone-service/internal/pipeline"
	"github.com/book-expert/voice-clone-service/internal/worker"
	"github.com/google/uuid"

	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockDownload = errors.New("mock download error")

// mockObjectStore is an in-memory object store.
type mockObjectStore struct {
	blobs              map[string][]byte
	uploadedKey        string
	uploadedData       []byte
	downloadShouldFail bool
}

func (m *mockObjectStore) Download(_ context.Context, key string) ([]byte, error) {
	if m.downloadShouldFail {
		return nil, errMockDownload
	}

	data, ok := m.blobs[key]
	if !ok {
		return nil, errMockDownload
	}

	return data, nil
}

func (m *mockObjectStore) Upload(_ context.Context, key string, data []byte) error {
	m.uploadedKey = key
	m.uploadedData = data

	return nil
}

// mockCloner records the job and writes a fake output file, as the real
// pipeline would.
type mockCloner struct {
	job     pipeline.Job
	report  pipeline.Report
	runErr  error
	invoked bool
}

func (m *mockCloner) Run(_ context.Context, job pipeline.Job) (*pipeline.Report, error) {
	m.invoked = true
	m.job = job

	if m.runErr != nil {
		return nil, m.runErr
	}

	writeErr := os.WriteFile(job.OutputPath, []byte("cloned audio"), 0o600)
	if writeErr != nil {
		return nil, writeErr
	}

	report := m.report

	return &report, nil
}

func createTestNatsClient(t *testing.T) *nats.Conn {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	server := test.RunServer(&opts)

	natsConnection, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	t.Cleanup(func() {
		natsConnection.Close()
		server.Shutdown()
	})

	return natsConnection
}

func setupTest(t *testing.T) (*mockObjectStore, *mockCloner, *nats.Conn, context.CancelFunc) {
	t.Helper()

	mockStore := &mockObjectStore{
		blobs: map[string][]byte{
			"jobs/text.txt":      []byte("Hello from the cloned voice."),
			"jobs/reference.wav": []byte("reference clip bytes"),
		},
	}
	cloner := &mockCloner{
		report: pipeline.Report{TotalSegments: 1, Synthesized: 1},
	}

	natsConnection := createTestNatsClient(t)

	testLogger, err := logger.New(t.TempDir(), "worker-test.log")
	require.NoError(t, err)

	workerInstance, err := worker.NewNatsWorker(
		natsConnection, "clone_test_subject", mockStore, cloner, testLogger,
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		_ = workerInstance.Run(ctx)
	}()

	return mockStore, cloner, natsConnection, cancel
}

func newRequestEvent() *worker.CloneRequestedEvent {
	return &worker.CloneRequestedEvent{
		Header: events.EventHeader{
			Timestamp:  time.Now(),
			WorkflowID: uuid.NewString(),
			EventID:    uuid.NewString(),
		},
		TextKey:      "jobs/text.txt",
		ReferenceKey: "jobs/reference.wav",
		Language:     "en",
		Preset:       "expressive",
	}
}

func TestWorker_ProcessesCloneJob(t *testing.T) {
	t.Parallel()

	mockStore, cloner, natsConnection, cancel := setupTest(t)
	defer cancel()

	testEvent := newRequestEvent()
	eventData, err := json.Marshal(testEvent)
	require.NoError(t, err)

	replyMsg, err := natsConnection.Request("clone_test_subject", eventData, 10*time.Second)
	require.NoError(t, err, "Request should succeed and receive a reply")

	var replyEvent worker.CloneCompletedEvent

	require.NoError(t, json.Unmarshal(replyMsg.Data, &replyEvent))

	assert.True(t, cloner.invoked)
	assert.Equal(t, "Hello from the cloned voice.", cloner.job.Text)
	assert.Equal(t, "en", cloner.job.Language)

	// Expressive preset resolved into generation params.
	assert.InEpsilon(t, 0.85, cloner.job.Params.Temperature, 0.0001)
	assert.InEpsilon(t, 5.0, cloner.job.Params.RepetitionPenalty, 0.0001)

	assert.NotEmpty(t, mockStore.uploadedKey)
	assert.Equal(t, []byte("cloned audio"), mockStore.uploadedData)
	assert.Equal(t, mockStore.uploadedKey, replyEvent.AudioKey)
	assert.Equal(t, testEvent.Header.WorkflowID, replyEvent.Header.WorkflowID)
	assert.Equal(t, 1, replyEvent.TotalSegments)
	assert.Empty(t, replyEvent.MissingSegments)
}

func TestWorker_ReportsMissingSegments(t *testing.T) {
	t.Parallel()

	_, cloner, natsConnection, cancel := setupTest(t)
	defer cancel()

	cloner.report = pipeline.Report{
		TotalSegments:  4,
		Synthesized:    3,
		MissingIndices: []int{2},
	}

	eventData, err := json.Marshal(newRequestEvent())
	require.NoError(t, err)

	replyMsg, err := natsConnection.Request("clone_test_subject", eventData, 10*time.Second)
	require.NoError(t, err)

	var replyEvent worker.CloneCompletedEvent

	require.NoError(t, json.Unmarshal(replyMsg.Data, &replyEvent))
	assert.Equal(t, 4, replyEvent.TotalSegments)
	assert.Equal(t, []int{2}, replyEvent.MissingSegments)
}

func TestWorker_NoReplyOnUnknownPreset(t *testing.T) {
	t.Parallel()

	_, cloner, natsConnection, cancel := setupTest(t)
	defer cancel()

	event := newRequestEvent()
	event.Preset = "dramatic"

	eventData, err := json.Marshal(event)
	require.NoError(t, err)

	_, err = natsConnection.Request("clone_test_subject", eventData, 2*time.Second)
	require.Error(t, err, "invalid jobs are dropped without a reply")
	assert.False(t, cloner.invoked)
}

func TestWorker_NoReplyOnMissingInputs(t *testing.T) {
	t.Parallel()

	mockStore, cloner, natsConnection, cancel := setupTest(t)
	defer cancel()

	mockStore.downloadShouldFail = true

	eventData, err := json.Marshal(newRequestEvent())
	require.NoError(t, err)

	_, err = natsConnection.Request("clone_test_subject", eventData, 2*time.Second)
	require.Error(t, err)
	assert.False(t, cloner.invoked)
}
