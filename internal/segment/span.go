package segment

// CharSpan is one recognized character (or injected punctuation mark) with
// its time interval in milliseconds. Punctuation restored downstream of the
// acoustic model carries no timestamp of its own and is represented as a
// zero-width span pinned to the preceding character's end time.
type CharSpan struct {
	Text    string
	StartMS int
	EndMS   int
}

// RawSegment is a contiguous run of CharSpans between two punctuation
// boundaries or a forced cut. Always non-empty.
type RawSegment struct {
	Spans []CharSpan
}

// StartMS returns the first span's start time.
func (r RawSegment) StartMS() int { return r.Spans[0].StartMS }

// EndMS returns the last span's end time.
func (r RawSegment) EndMS() int { return r.Spans[len(r.Spans)-1].EndMS }

// DurationMS returns EndMS - StartMS.
func (r RawSegment) DurationMS() int { return r.EndMS() - r.StartMS() }

// Text concatenates the spans' text, punctuation included.
func (r RawSegment) Text() string {
	var b []byte
	for _, s := range r.Spans {
		b = append(b, s.Text...)
	}
	return string(b)
}
