package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voice-clone-service/internal/core"
)

func TestValidateLanguage(t *testing.T) {
	t.Parallel()

	require.NoError(t, core.ValidateLanguage("en"))
	require.NoError(t, core.ValidateLanguage("zh-cn"))
	require.NoError(t, core.ValidateLanguage(core.DefaultLanguage))

	err := core.ValidateLanguage("klingon")
	require.Error(t, err)
	require.ErrorIs(t, err, core.ErrUnsupportedLanguage)
	assert.Contains(t, err.Error(), "klingon")
}

func TestSupportedLanguagesIsStable(t *testing.T) {
	t.Parallel()

	first := core.SupportedLanguages()
	second := core.SupportedLanguages()

	assert.Equal(t, first, second, "listing must be deterministic")
	assert.Len(t, first, 16)
	assert.Contains(t, first, "en")
	assert.Contains(t, first, "ja")
}
