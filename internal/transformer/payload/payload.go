// Package payload decodes the serialized "other" column of an LMS log event.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

// Format records which decoder produced a Payload.
type Format int

const (
	FormatPHP Format = iota + 1
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatPHP:
		return "php"
	case FormatJSON:
		return "json"
	}
	return "unknown"
}

// Payload is the decoded key/value content of an event's "other" column.
type Payload struct {
	Format Format
	Values map[string]any
}

// Decode tries PHP serialization first and JSON second. A PHP decode that
// yields a falsy value (null, false, 0, "", empty array) or a scalar falls
// through to JSON. Input neither decoder accepts fails with
// domain.ErrMalformedPayload.
func Decode(raw string) (Payload, error) {
	if v, err := unserializePHP(raw); err == nil {
		if m, ok := v.(map[string]any); ok && len(m) > 0 {
			return Payload{Format: FormatPHP, Values: m}, nil
		}
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	if dec.More() {
		return Payload{}, fmt.Errorf("%w: trailing data after JSON object", domain.ErrMalformedPayload)
	}
	if m == nil {
		return Payload{}, fmt.Errorf("%w: payload is null", domain.ErrMalformedPayload)
	}
	return Payload{Format: FormatJSON, Values: m}, nil
}

// Int returns a numeric field. PHP often stores ids as strings, so numeric
// strings are accepted. A missing or non-numeric field is malformed.
func (p Payload) Int(key string) (int64, error) {
	v, ok := p.Values[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: missing %q", domain.ErrMalformedPayload, key)
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		if n == math.Trunc(n) {
			return int64(n), nil
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		if f, err := n.Float64(); err == nil && f == math.Trunc(f) {
			return int64(f), nil
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
			return i, nil
		}
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("%w: %q is not an integer", domain.ErrMalformedPayload, key)
}

// String returns a text field, formatting scalars the way PHP would echo them.
func (p Payload) String(key string) (string, error) {
	v, ok := p.Values[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: missing %q", domain.ErrMalformedPayload, key)
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	case int64:
		return strconv.FormatInt(s, 10), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case bool:
		if s {
			return "1", nil
		}
		return "", nil
	}
	return "", fmt.Errorf("%w: %q is not a scalar", domain.ErrMalformedPayload, key)
}

// Encode writes values back as a JSON object. Used when a payload is rewritten
// before buffering.
func Encode(values map[string]any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(values); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
