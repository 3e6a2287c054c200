package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNotFound is returned by Get when no product matches the requested id.
var ErrNotFound = errors.New("product not found")

// Summary is the reduced product shape returned by List.
type Summary struct {
	ID       int    `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

// Reader serves products from a static JSON catalog file. The file is
// re-read on every call so catalog edits show up without a restart.
type Reader struct {
	path string
}

func NewReader(path string) *Reader {
	return &Reader{path: path}
}

func (r *Reader) load() ([]json.RawMessage, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", r.path, err)
	}
	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file %s: %w", r.path, err)
	}
	return records, nil
}

// List returns the {id,title,category,image} summary of every product.
func (r *Reader) List() ([]Summary, error) {
	records, err := r.load()
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(records))
	for _, record := range records {
		var s Summary
		if err := json.Unmarshal(record, &s); err != nil {
			return nil, fmt.Errorf("failed to parse catalog record: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// Get returns the full stored record for the given id, untouched, so any
// fields beyond the summary shape pass through verbatim.
func (r *Reader) Get(id int) (json.RawMessage, error) {
	records, err := r.load()
	if err != nil {
		return nil, err
	}

	for _, record := range records {
		var probe struct {
			ID *int `json:"id"`
		}
		if err := json.Unmarshal(record, &probe); err != nil {
			continue
		}
		if probe.ID != nil && *probe.ID == id {
			return record, nil
		}
	}
	return nil, ErrNotFound
}
