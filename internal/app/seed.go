package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// ReadSeed decodes a seed document: either a bare JSON array of records or an
// object with an "items" array (the shape of a remote list page).
func ReadSeed(r io.Reader) ([]map[string]any, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}
	if b[0] == '[' {
		var out []map[string]any
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, fmt.Errorf("seed: %w", err)
		}
		return out, nil
	}
	var page struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(b, &page); err != nil {
		return nil, fmt.Errorf("seed: %w", err)
	}
	return page.Items, nil
}
