package core

import (
	"errors"
	"fmt"
	"sort"
)

// DefaultLanguage is used when no language code is supplied.
const DefaultLanguage = "en"

// ErrUnsupportedLanguage is returned when a language code is not in the
// engine's supported set.
var ErrUnsupportedLanguage = errors.New("unsupported language code")

// supportedLanguages is the fixed set of language codes the synthesis engine
// accepts.
var supportedLanguages = map[string]struct{}{
	"en": {}, "es": {}, "fr": {}, "de": {}, "it": {}, "pt": {},
	"pl": {}, "tr": {}, "ru": {}, "nl": {}, "cs": {}, "ar": {},
	"zh-cn": {}, "ja": {}, "hu": {}, "ko": {},
}

// ValidateLanguage checks that the given code is supported by the engine.
func ValidateLanguage(code string) error {
	if _, ok := supportedLanguages[code]; !ok {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
	}

	return nil
}

// SupportedLanguages returns the supported language codes, sorted.
func SupportedLanguages() []string {
	codes := make([]string, 0, len(supportedLanguages))
	for code := range supportedLanguages {
		codes = append(codes, code)
	}

	sort.Strings(codes)

	return codes
}
