package transcript

import (
	"bytes"
	"encoding/json"
	"io"
)

// EncodeJSON writes the transcript as pretty-printed UTF-8 JSON. HTML
// escaping is disabled so CJK text and <>& pass through unescaped. The
// output is deterministic for a given Transcript value.
func (t *Transcript) EncodeJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// MarshalPretty returns the JSON encoding as a byte slice.
func (t *Transcript) MarshalPretty() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.EncodeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
