package transcript

import (
	"bytes"
	"fmt"
	"io"
	"math"
)

// EncodeSRT writes the transcript in SubRip format: a 1-based sequence
// number, a time range line, the segment text, and a blank line per segment.
// Timestamps are not recomputed; this is purely a formatting pass.
func (t *Transcript) EncodeSRT(w io.Writer) error {
	for _, seg := range t.Segments {
		if _, err := fmt.Fprintf(w, "%d\n%s --> %s\n%s\n\n",
			seg.ID+1, srtTime(seg.Start), srtTime(seg.End), seg.Text); err != nil {
			return err
		}
	}
	return nil
}

// MarshalSRT returns the SRT encoding as a byte slice. An empty transcript
// yields an empty (but valid) file.
func (t *Transcript) MarshalSRT() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.EncodeSRT(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// srtTime formats seconds as HH:MM:SS,mmm. SubRip wants a comma before the
// millisecond field.
func srtTime(seconds float64) string {
	ms := int(math.Round(seconds * 1000))
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	m := ms % 3600000 / 60000
	s := ms % 60000 / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}
