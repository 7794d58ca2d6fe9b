// Package mapper turns raw extracted substrings and JSON blobs into the
// validated domain model. A record with any required part missing is dropped
// whole; nothing is defaulted.
package mapper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrShape reports embedded JSON that does not have the expected schema.
	ErrShape = errors.New("unexpected data shape")
	// ErrNotFound reports that an element required for the whole entity is missing.
	ErrNotFound = errors.New("required element not found")
)

// object decodes a JSON object and checks that every key is present.
// Keys listed in nullable may be null; all others must be non-null.
func object(data []byte, required []string, nullable ...string) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: expected object", ErrShape)
	}
	for _, key := range required {
		value, ok := obj[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing %q", ErrShape, key)
		}
		if isNull(value) && !contains(nullable, key) {
			return nil, fmt.Errorf("%w: %q is null", ErrShape, key)
		}
	}
	return obj, nil
}

// orderedObject decodes a JSON object keeping the key order.
func orderedObject(data []byte) ([]string, map[string]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrShape, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, nil, fmt.Errorf("%w: expected object", ErrShape)
	}

	var keys []string
	values := make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrShape, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("%w: expected key", ErrShape)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrShape, err)
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrShape, err)
	}
	return keys, values, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// collapseSpace replaces every whitespace run with a single space.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// calendarTime assembles a wall clock time in loc. It fails when a component
// is not a number or when the components do not name a real date, e.g.
// 31.02., which time.Date would silently normalise.
func calendarTime(loc *time.Location, year, month, day, hour, minute string) (time.Time, bool) {
	parts := make([]int, 5)
	for i, s := range []string{year, month, day, hour, minute} {
		n, err := strconv.Atoi(s)
		if err != nil {
			return time.Time{}, false
		}
		parts[i] = n
	}
	if loc == nil {
		loc = time.Local
	}
	t := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], 0, 0, loc)
	if t.Year() != parts[0] || int(t.Month()) != parts[1] || t.Day() != parts[2] ||
		t.Hour() != parts[3] || t.Minute() != parts[4] {
		return time.Time{}, false
	}
	return t, true
}
