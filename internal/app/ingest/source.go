package ingest

import (
	"encoding/json"
	"fmt"
	"io"
)

// RecordSource yields raw order records one at a time. Implementations must
// not require materializing the whole collection: the pipeline's memory is
// bounded by one batch window, not by payload size.
type RecordSource interface {
	// Next returns the next raw record, or io.EOF when the stream ends.
	Next() (json.RawMessage, error)
}

// JSONSource streams order records from a JSON body shaped either as
// {"orders": [...]} or as a bare top-level array.
type JSONSource struct {
	dec     *json.Decoder
	started bool
}

func NewJSONSource(r io.Reader) *JSONSource {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &JSONSource{dec: dec}
}

func (s *JSONSource) Next() (json.RawMessage, error) {
	if !s.started {
		if err := s.start(); err != nil {
			return nil, err
		}
		s.started = true
	}
	if !s.dec.More() {
		return nil, io.EOF
	}
	var raw json.RawMessage
	if err := s.dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode order record: %w", err)
	}
	return raw, nil
}

// start consumes tokens up to the opening bracket of the record array.
func (s *JSONSource) start() error {
	tok, err := s.dec.Token()
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || (delim != '[' && delim != '{') {
		return fmt.Errorf("payload must be a JSON object or array")
	}
	if delim == '[' {
		return nil
	}
	// Object form: scan keys until "orders", skipping other values.
	for {
		tok, err := s.dec.Token()
		if err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			// Closing '}' reached without an orders key.
			return fmt.Errorf(`payload object has no "orders" array`)
		}
		if key == "orders" {
			tok, err := s.dec.Token()
			if err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}
			if d, ok := tok.(json.Delim); !ok || d != '[' {
				return fmt.Errorf(`"orders" must be an array`)
			}
			return nil
		}
		var skip json.RawMessage
		if err := s.dec.Decode(&skip); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
	}
}
