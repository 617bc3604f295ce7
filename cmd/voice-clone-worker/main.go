// main package for the voice-clone NATS worker.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/voice-clone-service/internal/audio"
	"github.com/book-expert/voice-clone-service/internal/config"
	"github.com/book-expert/voice-clone-service/internal/objectstore"
	"github.com/book-expert/voice-clone-service/internal/pipeline"
	"github.com/book-expert/voice-clone-service/internal/tts"
	"github.com/book-expert/voice-clone-service/internal/worker"
)

const workerLogFileName = "voice-clone-worker.log"

func setupLogger(logPath string, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir(), "voice-clone-worker-bootstrap.log")
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir, workerLogFileName)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return runWorker(cfg, finalLog)
}

// runWorker connects to NATS, assembles the cloning pipeline, and blocks
// until the process receives an interrupt or termination signal.
func runWorker(cfg *config.Config, log *logger.Logger) error {
	natsConnection, connectErr := nats.Connect(cfg.NATS.URL)
	if connectErr != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, connectErr)
	}
	defer natsConnection.Close()

	jetstreamContext, jetstreamErr := natsConnection.JetStream()
	if jetstreamErr != nil {
		return fmt.Errorf("failed to get JetStream context: %w", jetstreamErr)
	}

	store, storeErr := objectstore.New(jetstreamContext, cfg.NATS.ObjectStoreBucket)
	if storeErr != nil {
		return fmt.Errorf("failed to initialize object store: %w", storeErr)
	}

	client := tts.NewHTTPClient(
		cfg.Synthesis.BaseURL,
		time.Duration(cfg.Synthesis.TimeoutSeconds)*time.Second,
	)
	engine := tts.NewHTTPEngine(client, log)
	concat := audio.NewConcatenator(cfg.Pipeline.FFmpegPath, log)
	pipe := pipeline.New(engine, concat, log, pipeline.Options{
		MinChunkChars: cfg.Pipeline.MinChunkChars,
		LongTextChars: cfg.Pipeline.LongTextChars,
	})

	natsWorker, workerErr := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.CloneJobSubject,
		store,
		pipe,
		log,
	)
	if workerErr != nil {
		return fmt.Errorf("failed to create worker: %w", workerErr)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	log.System(
		"Voice-clone worker initialized. Listening for jobs on subject: %s",
		cfg.NATS.CloneJobSubject,
	)

	runErr := natsWorker.Run(ctx)
	if runErr != nil {
		return fmt.Errorf("worker run failed: %w", runErr)
	}

	log.Info("Worker shut down cleanly.")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
