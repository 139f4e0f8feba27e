package segment

// Options controls sentence splitting and merging.
type Options struct {
	// Terminators close a segment after being appended to it.
	Terminators map[rune]bool
	// MaxSegmentMS forces a cut before a character that would stretch the
	// current segment past this ceiling.
	MaxSegmentMS int
	// MinSegmentMS is the duration below which consecutive raw segments are
	// fused by Merge.
	MinSegmentMS int
	// MaxMergedMS caps a merged segment. Defaults to the same value as
	// MaxSegmentMS but is independently settable.
	MaxMergedMS int
}

// DefaultOptions returns the segmentation defaults: split on CJK and Latin
// sentence-ending punctuation, cut at 15s, merge segments shorter than 3s.
func DefaultOptions() Options {
	return Options{
		Terminators:  DefaultTerminators(),
		MaxSegmentMS: 15000,
		MinSegmentMS: 3000,
		MaxMergedMS:  15000,
	}
}

// DefaultTerminators returns the sentence-ending punctuation set: CJK and
// Latin forms of period, question mark, exclamation mark, and ellipsis.
func DefaultTerminators() map[rune]bool {
	set := make(map[rune]bool)
	for _, r := range "。？！．.?!…" {
		set[r] = true
	}
	return set
}

// Split scans the CharSpan sequence left to right and cuts it into raw
// segments. A segment closes after a sentence terminator (the terminator
// stays with the segment it ends), or before a character whose end time
// would stretch the segment past MaxSegmentMS. Every input span appears in
// exactly one output segment, in order.
func Split(spans []CharSpan, opts Options) []RawSegment {
	if len(spans) == 0 {
		return nil
	}

	var segs []RawSegment
	var buf []CharSpan

	for _, sp := range spans {
		if len(buf) > 0 && sp.EndMS-buf[0].StartMS > opts.MaxSegmentMS {
			segs = append(segs, RawSegment{Spans: buf})
			buf = nil
		}
		buf = append(buf, sp)
		if terminatesSentence(sp.Text, opts.Terminators) {
			segs = append(segs, RawSegment{Spans: buf})
			buf = nil
		}
	}
	if len(buf) > 0 {
		segs = append(segs, RawSegment{Spans: buf})
	}
	return segs
}

func terminatesSentence(text string, terminators map[rune]bool) bool {
	for _, r := range text {
		return terminators[r]
	}
	return false
}
