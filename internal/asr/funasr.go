package asr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// FunASRClient talks to a FunASR sidecar exposing the paraformer-zh +
// fsmn-vad + ct-punc + fa-zh stack over HTTP. Implements Pipeline.
type FunASRClient struct {
	baseURL  string
	model    string
	language string
	device   string // resolved by Load
	timeout  time.Duration
	client   *http.Client
	log      zerolog.Logger
}

// funasrStatus is the sidecar's status response, used for the device probe
// and the model readiness check.
type funasrStatus struct {
	Devices []string `json:"devices"`
	Models  []string `json:"models"`
}

// funasrResponse is the duck-typed recognition result. Only text and
// timestamp are reliable fields; text is a pointer so its absence is
// distinguishable from an empty transcript.
type funasrResponse struct {
	Text      *string `json:"text"`
	Timestamp [][]int `json:"timestamp"`
	Duration  float64 `json:"duration"`
}

// NewFunASRClient creates a client for the FunASR sidecar. Call Load before
// Transcribe.
func NewFunASRClient(baseURL, model, language string, timeout time.Duration, log zerolog.Logger) *FunASRClient {
	return &FunASRClient{
		baseURL:  baseURL,
		model:    model,
		language: language,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
		log:      log,
	}
}

// Model returns the configured model identifier.
func (c *FunASRClient) Model() string { return c.model }

// Language returns the configured language code.
func (c *FunASRClient) Language() string { return c.language }

// Device returns the device resolved by Load, or "" before loading.
func (c *FunASRClient) Device() string { return c.device }

// Load probes the sidecar, verifies the model is available, and resolves the
// inference device down the cuda > mps > cpu chain. First-run model
// downloads happen sidecar-side, so failures here usually mean the sidecar
// is not running or is still fetching weights.
func (c *FunASRClient) Load(ctx context.Context) error {
	status, err := c.fetchStatus(ctx)
	if err != nil {
		return fmt.Errorf("%w: sidecar at %s unreachable (start it with `funasr-sidecar --model %s`): %v",
			ErrModelLoad, c.baseURL, c.model, err)
	}

	if len(status.Models) > 0 && !contains(status.Models, c.model) {
		return fmt.Errorf("%w: model %q not served by sidecar (available: %v)",
			ErrModelLoad, c.model, status.Models)
	}

	dev, err := SelectDevice(DevicePreference, func(d string) bool {
		return contains(status.Devices, d)
	})
	if err != nil {
		return err
	}
	c.device = dev

	c.log.Info().
		Str("model", c.model).
		Str("device", dev).
		Str("sidecar", c.baseURL).
		Msg("asr pipeline loaded")
	return nil
}

// Transcribe sends an audio file to the sidecar and returns the validated
// (text, timestamps) pair.
func (c *FunASRClient) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}

	w.WriteField("model", c.model)
	w.WriteField("language", c.language)
	if c.device != "" {
		w.WriteField("device", c.device)
	}
	// Bounds the VAD-driven inference batch span, matching the segmenter's
	// assumption that no single recognized span runs unboundedly long.
	w.WriteField("batch_size_s", "60")
	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/recognize", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("funasr request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("funasr API error (status %d): %s", resp.StatusCode, string(body))
	}

	var raw funasrResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	result, err := validateResult(raw.Text, raw.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("funasr response: %w", err)
	}
	result.Duration = raw.Duration
	return result, nil
}

func (c *FunASRClient) fetchStatus(ctx context.Context) (*funasrStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/status", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var st funasrStatus
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return nil, err
	}
	return &st, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
