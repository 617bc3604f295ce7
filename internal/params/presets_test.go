// Package params_test tests preset resolution and parameter validation.
package params_test

import (
	"testing"

	"github.com/book-expert/voice-clone-service/internal/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(value float64) *float64 {
	return &value
}

func TestResolve_DefaultIsNeutral(t *testing.T) {
	t.Parallel()

	resolved, err := params.Resolve("", params.Overrides{})
	require.NoError(t, err)

	assert.InEpsilon(t, 0.75, resolved.Temperature, 0.0001)
	assert.InEpsilon(t, 10.0, resolved.RepetitionPenalty, 0.0001)
	assert.InEpsilon(t, 1.0, resolved.Speed, 0.0001)
}

func TestResolve_PresetWithOverride(t *testing.T) {
	t.Parallel()

	resolved, err := params.Resolve(
		params.PresetExpressive,
		params.Overrides{Speed: floatPtr(1.5)},
	)
	require.NoError(t, err)

	assert.InEpsilon(t, 0.85, resolved.Temperature, 0.0001)
	assert.InEpsilon(t, 5.0, resolved.RepetitionPenalty, 0.0001)
	assert.InEpsilon(t, 1.5, resolved.Speed, 0.0001)
}

func TestResolve_OverridesReplaceEveryField(t *testing.T) {
	t.Parallel()

	resolved, err := params.Resolve(params.PresetStable, params.Overrides{
		Temperature:       floatPtr(0.5),
		RepetitionPenalty: floatPtr(3.0),
		Speed:             floatPtr(0.8),
	})
	require.NoError(t, err)

	assert.InEpsilon(t, 0.5, resolved.Temperature, 0.0001)
	assert.InEpsilon(t, 3.0, resolved.RepetitionPenalty, 0.0001)
	assert.InEpsilon(t, 0.8, resolved.Speed, 0.0001)
}

func TestResolve_UnknownPreset(t *testing.T) {
	t.Parallel()

	_, err := params.Resolve("dramatic", params.Overrides{})
	require.ErrorIs(t, err, params.ErrUnknownPreset)
}

func TestResolve_RejectsOutOfRangeOverrides(t *testing.T) {
	t.Parallel()

	tests := []struct {
		wantErr   error
		overrides params.Overrides
		name      string
	}{
		{
			name:      "temperature above one",
			overrides: params.Overrides{Temperature: floatPtr(1.2)},
			wantErr:   params.ErrTemperatureRange,
		},
		{
			name:      "temperature zero",
			overrides: params.Overrides{Temperature: floatPtr(0.0)},
			wantErr:   params.ErrTemperatureRange,
		},
		{
			name:      "negative repetition penalty",
			overrides: params.Overrides{RepetitionPenalty: floatPtr(-1.0)},
			wantErr:   params.ErrRepetitionPenaltyRange,
		},
		{
			name:      "zero speed",
			overrides: params.Overrides{Speed: floatPtr(0.0)},
			wantErr:   params.ErrSpeedRange,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			_, err := params.Resolve("", testCase.overrides)
			require.ErrorIs(t, err, testCase.wantErr)
		})
	}
}
