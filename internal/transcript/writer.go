package transcript

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteFiles writes <basename>.json and <basename>.srt into outDir, creating
// the directory if absent. Returns the two output paths.
func (t *Transcript) WriteFiles(outDir, basename string) (jsonPath, srtPath string, err error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", "", fmt.Errorf("mkdir %s: %w", outDir, err)
	}

	jsonData, err := t.MarshalPretty()
	if err != nil {
		return "", "", fmt.Errorf("encode json: %w", err)
	}
	srtData, err := t.MarshalSRT()
	if err != nil {
		return "", "", fmt.Errorf("encode srt: %w", err)
	}

	jsonPath = filepath.Join(outDir, basename+".json")
	srtPath = filepath.Join(outDir, basename+".srt")

	if err := writeAtomic(jsonPath, jsonData); err != nil {
		return "", "", err
	}
	if err := writeAtomic(srtPath, srtData); err != nil {
		return "", "", err
	}
	return jsonPath, srtPath, nil
}

// writeAtomic writes via temp file + rename so readers never observe a
// partially written transcript.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".transcript-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
