package outcome

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Layouts accepted when reading timestamps. Values without an offset are
// taken as UTC; older result files were written that way.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q: unknown layout", s)
}

// LooseTime decodes any layout ParseTimestamp knows. null and "" give the
// zero time.
type LooseTime time.Time

func (t *LooseTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = LooseTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		*t = LooseTime{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = LooseTime(parsed)
	return nil
}

func (o *Outcome) UnmarshalJSON(b []byte) error {
	type plain Outcome
	aux := struct {
		*plain
		LastChecked LooseTime `json:"lastChecked"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	o.LastChecked = time.Time(aux.LastChecked)
	return nil
}
