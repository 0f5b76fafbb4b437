package service

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"promanage/internal/common"
)

// Patch is a JSON field that distinguishes "absent" from "null". Set is true
// whenever the key was present; Null marks an explicit null.
type Patch[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some builds a patch carrying v.
func Some[T any](v T) Patch[T] {
	return Patch[T]{Set: true, Value: v}
}

// Null builds a patch that clears the field.
func Null[T any]() Patch[T] {
	return Patch[T]{Set: true, Null: true}
}

func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	p.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		p.Null = true
		return nil
	}
	return json.Unmarshal(data, &p.Value)
}

// cleared reports whether a string patch asks to remove the value.
func cleared(p Patch[string]) bool {
	return p.Null || strings.TrimSpace(p.Value) == ""
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// parseDueDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, common.Validation("Invalid due date, expected YYYY-MM-DD or RFC 3339")
}
