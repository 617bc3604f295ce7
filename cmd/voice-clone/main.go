// main package for the voice-clone command-line client.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/voice-clone-service/internal/audio"
	"github.com/book-expert/voice-clone-service/internal/config"
	"github.com/book-expert/voice-clone-service/internal/core"
	"github.com/book-expert/voice-clone-service/internal/params"
	"github.com/book-expert/voice-clone-service/internal/pipeline"
	"github.com/book-expert/voice-clone-service/internal/tts"
)

// Flag names.
const (
	flagReference = "reference"
	flagText      = "text"
	flagTextFile  = "text-file"
	flagOutput    = "output"
	flagLanguage  = "language"
	flagPreset    = "preset"
	flagTemp      = "temperature"
	flagRepPen    = "repetition-penalty"
	flagSpeed     = "speed"
	flagVerbose   = "verbose"
	flagHealth    = "health"
)

// Flag descriptions.
const (
	flagReferenceDesc = "Path to reference audio file (6-60 seconds of clear speech recommended)"
	flagTextDesc      = "Text to convert to speech"
	flagTextFileDesc  = "Path to a text file containing the text to convert"
	flagOutputDesc    = "Output audio file path"
	flagLanguageDesc  = "Language code for synthesis"
	flagPresetDesc    = "Generation preset: stable, neutral, expressive, extreme"
	flagTempDesc      = "Generation temperature override (0.0-1.0)"
	flagRepPenDesc    = "Repetition penalty override"
	flagSpeedDesc     = "Speech speed override"
	flagVerboseDesc   = "Enable verbose logging"
	flagHealthDesc    = "Check synthesis service health and exit"
)

// Error and log messages.
const (
	errReferenceRequired  = "--reference is required"
	errEitherTextOrFile   = "either --text or --text-file must be provided"
	errCannotSpecifyBoth  = "cannot specify both --text and --text-file"
	errOutputMissing      = "run finished but output file %s does not exist"
	warnMissingSegments   = "WARNING: %d of %d segments missing from output (indices %v); staged parts: %s\n"
	warnRunFailedKept     = "WARNING: voice cloning failed (%v); existing output %s satisfies the run\n"
	logGenerated          = "Generated: %s\n"
	defaultOutputFileName = "output.wav"
)

// Log file names.
const (
	logFileNameDefault = "voice-clone.log"
	logFileNameVerbose = "voice-clone-verbose.log"
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	reference         string
	text              string
	textFile          string
	output            string
	language          string
	preset            string
	temperature       float64
	repetitionPenalty float64
	speed             float64
	verbose           bool
	health            bool
}

func main() {
	err := run()
	if err != nil {
		// A logger might not be initialized yet, so use the standard log package.
		log.Fatalf("Error: %v", err)
	}
}

// run is the main application entry point. A nil return means the output
// file exists; any error path exits non-zero.
func run() error {
	flags := parseFlags()

	cfg, appLog, err := setup(flags.verbose)
	if err != nil {
		return err
	}
	defer func() { _ = appLog.Close() }()

	client := tts.NewHTTPClient(
		cfg.Synthesis.BaseURL,
		time.Duration(cfg.Synthesis.TimeoutSeconds)*time.Second,
	)

	if flags.health {
		return handleHealthCheck(client, appLog)
	}

	return handleExecution(client, cfg, appLog, flags)
}

// parseFlags defines and parses command-line flags, returning them in a
// struct. Unset float overrides stay NaN so "not provided" is
// distinguishable from any real value.
func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.reference, flagReference, "", flagReferenceDesc)
	flag.StringVar(&flags.text, flagText, "", flagTextDesc)
	flag.StringVar(&flags.textFile, flagTextFile, "", flagTextFileDesc)
	flag.StringVar(&flags.output, flagOutput, "", flagOutputDesc)
	flag.StringVar(&flags.language, flagLanguage, core.DefaultLanguage, flagLanguageDesc)
	flag.StringVar(&flags.preset, flagPreset, "", flagPresetDesc)
	flag.Float64Var(&flags.temperature, flagTemp, math.NaN(), flagTempDesc)
	flag.Float64Var(&flags.repetitionPenalty, flagRepPen, math.NaN(), flagRepPenDesc)
	flag.Float64Var(&flags.speed, flagSpeed, math.NaN(), flagSpeedDesc)
	flag.BoolVar(&flags.verbose, flagVerbose, false, flagVerboseDesc)
	flag.BoolVar(&flags.health, flagHealth, false, flagHealthDesc)
	flag.Parse()

	return flags
}

// setup loads the configuration and initializes the logger.
func setup(verbose bool) (*config.Config, *logger.Logger, error) {
	bootstrapLog, bootstrapErr := logger.New(os.TempDir(), "voice-clone-bootstrap.log")
	if bootstrapErr != nil {
		return nil, nil, fmt.Errorf(
			"failed to create bootstrap logger: %w",
			bootstrapErr,
		)
	}

	cfg, cfgErr := config.Load(bootstrapLog)
	if cfgErr != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", cfgErr)
	}

	logFileName := logFileNameDefault
	if verbose {
		logFileName = logFileNameVerbose
	}

	appLog, logErr := logger.New(cfg.Paths.BaseLogsDir, logFileName)
	if logErr != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", logErr)
	}

	return cfg, appLog, nil
}

// handleHealthCheck performs a service health check and prints the result.
func handleHealthCheck(client *tts.HTTPClient, appLog *logger.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	healthErr := client.HealthCheck(ctx)
	if healthErr != nil {
		appLog.Error("Health check failed: %v", healthErr)
		fmt.Printf("Synthesis service is not healthy: %v\n", healthErr)

		return healthErr
	}

	fmt.Println("Synthesis service is healthy")

	return nil
}

// validateInputFlags enforces the required reference and the mutually
// exclusive text sources.
func validateInputFlags(flags appFlags) error {
	if flags.reference == "" {
		return errors.New(errReferenceRequired)
	}

	if flags.text == "" && flags.textFile == "" {
		return errors.New(errEitherTextOrFile)
	}

	if flags.text != "" && flags.textFile != "" {
		return errors.New(errCannotSpecifyBoth)
	}

	return nil
}

// resolveText returns the synthesis text from the literal flag or the text
// file.
func resolveText(flags appFlags) (string, error) {
	if flags.text != "" {
		return flags.text, nil
	}

	data, readErr := os.ReadFile(flags.textFile)
	if readErr != nil {
		return "", fmt.Errorf(
			"failed to read text file %s: %w",
			flags.textFile,
			readErr,
		)
	}

	return strings.TrimSpace(string(data)), nil
}

// resolveOutputPath applies the configured output directory and default file
// name when no explicit output path is given.
func resolveOutputPath(flags appFlags, cfg *config.Config) string {
	if flags.output != "" {
		return flags.output
	}

	if cfg.Paths.OutputDir != "" {
		return filepath.Join(cfg.Paths.OutputDir, defaultOutputFileName)
	}

	return defaultOutputFileName
}

// overridesFromFlags maps explicitly supplied float flags to preset
// overrides.
func overridesFromFlags(flags appFlags) params.Overrides {
	var overrides params.Overrides

	if !math.IsNaN(flags.temperature) {
		overrides.Temperature = &flags.temperature
	}

	if !math.IsNaN(flags.repetitionPenalty) {
		overrides.RepetitionPenalty = &flags.repetitionPenalty
	}

	if !math.IsNaN(flags.speed) {
		overrides.Speed = &flags.speed
	}

	return overrides
}

// handleExecution validates flags, prepares inputs, and drives the pipeline.
func handleExecution(
	client *tts.HTTPClient,
	cfg *config.Config,
	appLog *logger.Logger,
	flags appFlags,
) error {
	validateErr := validateInputFlags(flags)
	if validateErr != nil {
		flag.Usage()
		appLog.Error("%v", validateErr)

		return validateErr
	}

	text, textErr := resolveText(flags)
	if textErr != nil {
		appLog.Error("%v", textErr)

		return textErr
	}

	generation, resolveErr := params.Resolve(flags.preset, overridesFromFlags(flags))
	if resolveErr != nil {
		appLog.Error("%v", resolveErr)

		return resolveErr
	}

	ctx := context.Background()

	preparer := audio.NewReferencePreparer(cfg.Pipeline.FFmpegPath, appLog)

	referencePath, temporary, prepareErr := preparer.Prepare(ctx, flags.reference)
	if prepareErr != nil {
		appLog.Error("%v", prepareErr)

		return prepareErr
	}

	if temporary {
		defer func() {
			removeErr := os.Remove(referencePath)
			if removeErr != nil {
				appLog.Warn(
					"Failed to remove temp reference '%s': %v",
					referencePath,
					removeErr,
				)
			}
		}()
	}

	outputPath := resolveOutputPath(flags, cfg)

	engine := tts.NewHTTPEngine(client, appLog)
	concat := audio.NewConcatenator(cfg.Pipeline.FFmpegPath, appLog)
	pipe := pipeline.New(engine, concat, appLog, pipeline.Options{
		MinChunkChars: cfg.Pipeline.MinChunkChars,
		LongTextChars: cfg.Pipeline.LongTextChars,
	})

	report, runErr := pipe.Run(ctx, pipeline.Job{
		Text:          text,
		ReferencePath: referencePath,
		Language:      flags.language,
		OutputPath:    outputPath,
		Params:        generation,
	})

	if report != nil && !report.Complete() {
		fmt.Fprintf(
			os.Stderr,
			warnMissingSegments,
			len(report.MissingIndices),
			report.TotalSegments,
			report.MissingIndices,
			report.StagingDir,
		)
	}

	finalErr := finalizeRun(outputPath, runErr, appLog)
	if finalErr != nil {
		return finalErr
	}

	appLog.Info("Successfully generated speech: %s", outputPath)
	fmt.Printf(logGenerated, outputPath)

	return nil
}

// finalizeRun applies the success contract: the run succeeded exactly when
// the output file exists afterwards. A pipeline failure over an output file
// left by a previous run is logged but still counts as success, so retried
// jobs keep their resume semantics.
func finalizeRun(outputPath string, runErr error, appLog *logger.Logger) error {
	_, statErr := os.Stat(outputPath)

	if runErr != nil {
		appLog.Error("Voice cloning failed: %v", runErr)

		if statErr != nil {
			return runErr
		}

		fmt.Fprintf(os.Stderr, warnRunFailedKept, runErr, outputPath)

		return nil
	}

	if statErr != nil {
		return fmt.Errorf(errOutputMissing, outputPath)
	}

	return nil
}
