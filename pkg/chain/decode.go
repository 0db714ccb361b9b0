package chain

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Decode reads a chain Response from r.
//
// Decode returns an error only for malformed JSON. Unknown fields are
// ignored, and a document without "levels" yields an empty Response.
// Decode does not close r.
func Decode(r io.Reader) (*Response, error) {
	var resp Response
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode chain: %w", err)
	}
	return &resp, nil
}

// ReadFile decodes the chain Response stored at path.
func ReadFile(path string) (*Response, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}
