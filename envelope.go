package issueenvelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// TimestampLayout is the wire layout of Envelope.Timestamp: a local date-time
// without zone.
const TimestampLayout = "2006-01-02T15:04:05"

// Envelope is the wire form of one classified failure.
type Envelope struct {
	StatusCode int       `json:"statusCode"`
	Types      []string  `json:"types"`
	Messages   []string  `json:"messages"`
	Timestamp  LocalTime `json:"timestamp"`
}

// LocalTime is a wall-clock time encoded without zone.
type LocalTime struct {
	time.Time
}

func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(TimestampLayout) + `"`), nil
}

// UnmarshalJSON accepts the wire layout with optional fractional seconds,
// RFC 3339 with a zone, and the [y,m,d,h,m,s,nanos] array some producers
// emit. Anything else decodes to the zero time: the timestamp is
// informational and never fails an envelope.
func (t *LocalTime) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if json.Unmarshal(data, &s) == nil {
			t.Time = parseTimestamp(s)
		}
	case '[':
		var parts []int
		if json.Unmarshal(data, &parts) == nil && len(parts) >= 3 {
			for len(parts) < 7 {
				parts = append(parts, 0)
			}
			t.Time = time.Date(parts[0], time.Month(parts[1]), parts[2],
				parts[3], parts[4], parts[5], parts[6], time.Local)
		}
	}
	return nil
}

var timestampLayouts = []string{
	TimestampLayout,
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// Encode builds the envelope for e with the given status code, stamped now.
func Encode(e *Error, status int) *Envelope {
	return EncodeAt(e, status, time.Now())
}

// EncodeAt builds the envelope for e stamped with at.
func EncodeAt(e *Error, status int, at time.Time) *Envelope {
	env := &Envelope{
		StatusCode: status,
		Types:      []string{},
		Messages:   []string{},
		Timestamp:  LocalTime{at.Truncate(time.Second)},
	}
	if e == nil {
		return env
	}
	env.Types = uniqueNames(e.types)
	if e.message != "" {
		env.Messages = []string{e.message}
	}
	return env
}

func newEnvelope(status int, types []IssueType, messages []string, at time.Time) *Envelope {
	if messages == nil {
		messages = []string{}
	}
	return &Envelope{
		StatusCode: status,
		Types:      uniqueNames(types),
		Messages:   messages,
		Timestamp:  LocalTime{at.Truncate(time.Second)},
	}
}

// MalformedEnvelopeError reports an envelope that does not have the
// required shape. It matches ErrProtocolViolation.
type MalformedEnvelopeError struct {
	Reason string
	Cause  error
}

func (e *MalformedEnvelopeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed error envelope: %s: %v", e.Reason, e.Cause)
	}
	return "malformed error envelope: " + e.Reason
}

func (e *MalformedEnvelopeError) Unwrap() error { return e.Cause }

func (e *MalformedEnvelopeError) Is(target error) bool { return target == ErrProtocolViolation }

// IsProtocolViolation reports whether err is an unclassifiable envelope.
func IsProtocolViolation(err error) bool {
	return err != nil && errors.Is(err, ErrProtocolViolation)
}

// wireEnvelope detects missing required fields.
type wireEnvelope struct {
	StatusCode *int      `json:"statusCode"`
	Types      *[]string `json:"types"`
	Messages   []string  `json:"messages"`
	Timestamp  LocalTime `json:"timestamp"`
}

// Decode parses an envelope. Unknown fields are ignored; a missing
// statusCode or types field is a protocol violation.
func Decode(data []byte) (*Envelope, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &MalformedEnvelopeError{Reason: "empty body"}
	}
	if trimmed[0] != '{' {
		return nil, &MalformedEnvelopeError{Reason: "body is not a JSON object"}
	}

	var w wireEnvelope
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, &MalformedEnvelopeError{Reason: "invalid JSON", Cause: err}
	}
	if w.StatusCode == nil {
		return nil, &MalformedEnvelopeError{Reason: "missing statusCode"}
	}
	if w.Types == nil {
		return nil, &MalformedEnvelopeError{Reason: "missing types"}
	}

	types := make([]string, 0, len(*w.Types))
	seen := make(map[string]struct{}, len(*w.Types))
	for _, name := range *w.Types {
		if strings.TrimSpace(name) == "" {
			return nil, &MalformedEnvelopeError{Reason: "blank type name"}
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		types = append(types, name)
	}

	messages := w.Messages
	if messages == nil {
		messages = []string{}
	}

	return &Envelope{
		StatusCode: *w.StatusCode,
		Types:      types,
		Messages:   messages,
		Timestamp:  w.Timestamp,
	}, nil
}

// DecodeReader reads r fully and decodes it.
func DecodeReader(r io.Reader) (*Envelope, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &MalformedEnvelopeError{Reason: "read body", Cause: err}
	}
	return Decode(data)
}

func uniqueNames(types []IssueType) []string {
	names := make([]string, 0, len(types))
	seen := make(map[string]struct{}, len(types))
	for _, t := range types {
		if _, dup := seen[t.name]; dup {
			continue
		}
		seen[t.name] = struct{}{}
		names = append(names, t.name)
	}
	return names
}
