package segment

import (
	"github.com/podscribe/podscribe/internal/transcript"
)

// BuildSegment turns one merged raw segment into a final transcript segment,
// regrouping its character stream into word units. Each CJK character is a
// word of its own; a contiguous run of non-CJK characters (a Latin word, a
// number) becomes a single word spanning its first and last character.
// Punctuation and whitespace stay in the segment text but never form words.
func BuildSegment(id int, raw RawSegment) transcript.Segment {
	seg := transcript.Segment{
		ID:    id,
		Start: transcript.Round3(float64(raw.StartMS()) / 1000.0),
		End:   transcript.Round3(float64(raw.EndMS()) / 1000.0),
		Text:  raw.Text(),
		Words: []transcript.Word{},
	}

	var run []CharSpan // pending non-CJK characters
	flush := func() {
		if len(run) == 0 {
			return
		}
		var text []byte
		for _, sp := range run {
			text = append(text, sp.Text...)
		}
		seg.Words = append(seg.Words, transcript.Word{
			Word:  string(text),
			Start: transcript.Round3(float64(run[0].StartMS) / 1000.0),
			End:   transcript.Round3(float64(run[len(run)-1].EndMS) / 1000.0),
		})
		run = nil
	}

	for _, sp := range raw.Spans {
		r := firstRune(sp.Text)
		switch {
		case isUntimed(r):
			flush()
		case isCJK(r):
			flush()
			seg.Words = append(seg.Words, transcript.Word{
				Word:  sp.Text,
				Start: transcript.Round3(float64(sp.StartMS) / 1000.0),
				End:   transcript.Round3(float64(sp.EndMS) / 1000.0),
			})
		default:
			run = append(run, sp)
		}
	}
	flush()
	return seg
}

// Build runs the full segmentation core over an aligned character stream:
// split at sentence boundaries and the duration ceiling, merge short
// segments, then group words. Segment IDs are sequential from zero.
func Build(spans []CharSpan, opts Options) []transcript.Segment {
	raw := Merge(Split(spans, opts), opts)
	segs := make([]transcript.Segment, len(raw))
	for i, r := range raw {
		segs[i] = BuildSegment(i, r)
	}
	return segs
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}
