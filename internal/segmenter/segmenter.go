// Package segmenter splits raw text into an ordered sequence of
// bounded-length segments on sentence boundaries.
package segmenter

import "strings"

// DefaultMinChunkChars is the default minimum number of characters a segment
// must reach before a sentence terminator closes it.
const DefaultMinChunkChars = 250

// Sentence terminator characters.
const terminators = ".!?"

// Segment is a bounded-length slice of the input text, synthesized
// independently. Index is 1-based and gap-free; Text is never empty.
type Segment struct {
	Text  string
	Index int
}

// Split scans the text left to right, accumulating characters into the
// current segment. Whenever the accumulated text ends with a sentence
// terminator and has reached minChunkChars characters, the segment is closed
// and a new one begins. Any non-blank remainder becomes a final trailing
// segment.
//
// Split is a pure function: the same input always yields the same segment
// boundaries. Text with no terminators, or text shorter than minChunkChars,
// yields a single segment containing the whole (trimmed) input. Blank input
// yields no segments.
func Split(text string, minChunkChars int) []Segment {
	if minChunkChars <= 0 {
		minChunkChars = DefaultMinChunkChars
	}

	var segments []Segment

	appendSegment := func(chunk []rune) {
		trimmed := strings.TrimSpace(string(chunk))
		if trimmed == "" {
			return
		}

		segments = append(segments, Segment{
			Index: len(segments) + 1,
			Text:  trimmed,
		})
	}

	var current []rune

	for _, char := range text {
		current = append(current, char)

		if strings.ContainsRune(terminators, char) && len(current) >= minChunkChars {
			appendSegment(current)

			current = current[:0]
		}
	}

	appendSegment(current)

	return segments
}
