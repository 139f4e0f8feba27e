package asr

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline boundary, matched with errors.Is.
var (
	// ErrModelLoad means the inference pipeline could not be initialized
	// (sidecar unreachable, model missing or still downloading).
	ErrModelLoad = errors.New("asr: model load failed")
	// ErrDeviceUnavailable means no device in the preference chain passed
	// its capability probe.
	ErrDeviceUnavailable = errors.New("asr: no usable device")
)

// Result is the upstream pipeline's output for one audio file: the full
// punctuated transcript plus one [start_ms, end_ms] pair per recognized
// character. Punctuation injected by the punctuation-restoration stage has
// no timestamp entry.
type Result struct {
	Text       string
	Timestamps [][2]int
	Duration   float64 // audio duration in seconds, 0 if unreported
}

// Pipeline is the speech-recognition collaborator: acoustic model, VAD,
// punctuation restorer, and forced aligner behind one call. Loading the
// underlying models costs seconds to minutes and gigabytes of memory, so a
// Pipeline is constructed once, loaded explicitly, and injected into every
// caller for the life of the process.
type Pipeline interface {
	// Load initializes the pipeline (device selection, model download check).
	// Must be called once before Transcribe.
	Load(ctx context.Context) error
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
	Model() string    // model identifier for metadata/logs
	Language() string // language code for metadata
}

// validateResult enforces the narrow input contract at the pipeline
// boundary: the response is only reliable through its text and timestamp
// fields, so both are checked for presence and shape before use.
func validateResult(text *string, timestamps [][]int) (*Result, error) {
	if text == nil {
		return nil, fmt.Errorf("pipeline response missing text field")
	}
	out := &Result{Text: *text, Timestamps: make([][2]int, len(timestamps))}
	for i, ts := range timestamps {
		if len(ts) < 2 {
			return nil, fmt.Errorf("pipeline timestamp %d has %d elements, want 2", i, len(ts))
		}
		if ts[0] < 0 || ts[1] < ts[0] {
			return nil, fmt.Errorf("pipeline timestamp %d not ordered: [%d,%d]", i, ts[0], ts[1])
		}
		out.Timestamps[i] = [2]int{ts[0], ts[1]}
	}
	return out, nil
}
