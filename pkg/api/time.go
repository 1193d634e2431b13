package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// NaiveLayout — формат backend: UTC без смещения, до микросекунд
const NaiveLayout = "2006-01-02T15:04:05.999999"

// Timestamp is a time.Time that decodes both RFC 3339 and the backend's
// offset-less form. Offset-less values are read as UTC.
type Timestamp struct {
	time.Time
}

// ParseTimestamp parses s as RFC 3339 or, failing that, as NaiveLayout in UTC
func ParseTimestamp(s string) (Timestamp, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: t}, nil
	}
	t, err := time.ParseInLocation(NaiveLayout, s, time.UTC)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return Timestamp{Time: t}, nil
}

// UnmarshalJSON accepts a JSON string or null
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// MarshalJSON writes the time in UTC without offset; zero time becomes null
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(NaiveLayout))
}
