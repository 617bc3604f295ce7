// Package params resolves named generation presets and explicit overrides
// into a final, validated set of generation parameters.
package params

import (
	"errors"
	"fmt"

	"github.com/book-expert/voice-clone-service/internal/core"
)

// Preset names. Each maps to a fixed generation-parameter triple that
// simulates emotion by controlling randomness and stability.
const (
	PresetStable     = "stable"
	PresetNeutral    = "neutral"
	PresetExpressive = "expressive"
	PresetExtreme    = "extreme"
)

// Static errors.
var (
	// ErrUnknownPreset indicates the supplied preset name is not one of the
	// fixed preset set.
	ErrUnknownPreset = errors.New("unknown preset")
	// ErrTemperatureRange indicates the temperature is outside (0.0, 1.0].
	ErrTemperatureRange = errors.New("temperature must be in (0.0, 1.0]")
	// ErrRepetitionPenaltyRange indicates a non-positive repetition penalty.
	ErrRepetitionPenaltyRange = errors.New("repetition penalty must be > 0")
	// ErrSpeedRange indicates a non-positive speech speed.
	ErrSpeedRange = errors.New("speed must be > 0")
)

// presets holds the fixed preset triples. Higher temperature and lower
// repetition penalty produce more dynamic, less stable speech.
var presets = map[string]core.GenerationParams{
	PresetStable:     {Temperature: 0.1, RepetitionPenalty: 20.0, Speed: 1.0},
	PresetNeutral:    {Temperature: 0.75, RepetitionPenalty: 10.0, Speed: 1.0},
	PresetExpressive: {Temperature: 0.85, RepetitionPenalty: 5.0, Speed: 1.0},
	PresetExtreme:    {Temperature: 0.95, RepetitionPenalty: 2.0, Speed: 1.0},
}

// Overrides carries optional per-field replacements applied on top of the
// selected preset. A nil field leaves the preset value in place.
type Overrides struct {
	Temperature       *float64
	RepetitionPenalty *float64
	Speed             *float64
}

// Resolve produces the final generation parameters. Resolution starts from
// the neutral preset, replaces the base with the named preset when one is
// given, then applies the overrides field by field. The result is validated
// before it is returned. Resolve has no side effects.
func Resolve(presetName string, overrides Overrides) (core.GenerationParams, error) {
	resolved := presets[PresetNeutral]

	if presetName != "" {
		preset, ok := presets[presetName]
		if !ok {
			return core.GenerationParams{}, fmt.Errorf(
				"%w: %q",
				ErrUnknownPreset,
				presetName,
			)
		}

		resolved = preset
	}

	if overrides.Temperature != nil {
		resolved.Temperature = *overrides.Temperature
	}

	if overrides.RepetitionPenalty != nil {
		resolved.RepetitionPenalty = *overrides.RepetitionPenalty
	}

	if overrides.Speed != nil {
		resolved.Speed = *overrides.Speed
	}

	validateErr := Validate(resolved)
	if validateErr != nil {
		return core.GenerationParams{}, validateErr
	}

	return resolved, nil
}

// Validate checks that the parameters are within the ranges the synthesis
// engine accepts.
func Validate(generation core.GenerationParams) error {
	if generation.Temperature <= 0.0 || generation.Temperature > 1.0 {
		return fmt.Errorf("%w: got %f", ErrTemperatureRange, generation.Temperature)
	}

	if generation.RepetitionPenalty <= 0.0 {
		return fmt.Errorf(
			"%w: got %f",
			ErrRepetitionPenaltyRange,
			generation.RepetitionPenalty,
		)
	}

	if generation.Speed <= 0.0 {
		return fmt.Errorf("%w: got %f", ErrSpeedRange, generation.Speed)
	}

	return nil
}
