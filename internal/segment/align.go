package segment

import (
	"errors"
	"fmt"
)

// ErrAlignment is returned when the transcript text and the timestamp array
// cannot produce a single valid character/time pair.
var ErrAlignment = errors.New("alignment: text and timestamps do not pair")

// Align zips the punctuated transcript with the per-character timestamp
// array into an ordered CharSpan sequence. The timestamp array covers only
// recognized characters; punctuation and whitespace injected by the
// punctuation-restoration stage consume no timestamp and become zero-width
// spans at the preceding character's end time (leading punctuation is pinned
// to the first timed character's start). When the two sequences disagree in
// length, the output truncates to the shorter side.
//
// Both inputs empty yields an empty sequence. If exactly one side is empty,
// or the text contains no timed characters at all, no valid pair can be
// produced and ErrAlignment is returned.
func Align(text string, timestamps [][2]int) ([]CharSpan, error) {
	runes := []rune(text)
	if len(runes) == 0 && len(timestamps) == 0 {
		return []CharSpan{}, nil
	}

	spans := make([]CharSpan, 0, len(runes))
	leading := 0 // untimed spans emitted before the first timed character
	timed := 0
	tsIdx := 0

	for _, r := range runes {
		if isUntimed(r) {
			// Zero-width span; start/end fixed up once we know the
			// neighboring timed character.
			var at int
			if timed > 0 {
				at = spans[len(spans)-1].EndMS
			} else {
				leading++
			}
			spans = append(spans, CharSpan{Text: string(r), StartMS: at, EndMS: at})
			continue
		}
		if tsIdx >= len(timestamps) {
			break // timestamp array exhausted; truncate
		}
		ts := timestamps[tsIdx]
		tsIdx++
		timed++
		if timed == 1 {
			for i := 0; i < leading; i++ {
				spans[i].StartMS = ts[0]
				spans[i].EndMS = ts[0]
			}
		}
		spans = append(spans, CharSpan{Text: string(r), StartMS: ts[0], EndMS: ts[1]})
	}

	if timed == 0 {
		return nil, fmt.Errorf("%w: %d chars, %d timestamps", ErrAlignment, len(runes), len(timestamps))
	}
	return spans, nil
}
