package transcript

import (
	"math"
	"time"
)

// Word is one timed word within a segment. For Chinese text each CJK
// character is its own word; contiguous Latin/digit runs form one word.
type Word struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`
}

// Segment is one caption-sized span of the transcript.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words"`
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 { return s.End - s.Start }

// Metadata describes the transcription run.
type Metadata struct {
	Duration      float64 `json:"duration"` // total audio covered, seconds
	Model         string  `json:"model"`
	Language      string  `json:"language"`
	ProcessedAt   string  `json:"processed_at"`
	SegmentsCount int     `json:"segments_count"`
}

// Transcript is the full structured result for one audio file. Immutable
// after construction; the unit of JSON serialization.
type Transcript struct {
	Metadata Metadata  `json:"metadata"`
	Segments []Segment `json:"segments"`
	FullText string    `json:"full_text"`
}

// New assembles a Transcript from final segments. Total duration is the last
// segment's end time (zero for an empty transcript). Segments are never nil
// so an empty transcript serializes as "segments": [].
func New(segments []Segment, fullText, model, language string, processedAt time.Time) *Transcript {
	if segments == nil {
		segments = []Segment{}
	}
	var duration float64
	if len(segments) > 0 {
		duration = segments[len(segments)-1].End
	}
	return &Transcript{
		Metadata: Metadata{
			Duration:      Round3(duration),
			Model:         model,
			Language:      language,
			ProcessedAt:   processedAt.Format(time.RFC3339),
			SegmentsCount: len(segments),
		},
		Segments: segments,
		FullText: fullText,
	}
}

// Round3 rounds seconds to millisecond precision for serialization.
func Round3(s float64) float64 {
	return math.Round(s*1000) / 1000
}
