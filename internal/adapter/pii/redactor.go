package pii

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/transformer/payload"
)

// RedactedPlaceholder replaces redacted values in the "other" payload.
const RedactedPlaceholder = "[REDACTED]"

// fieldIP names the event's own ip column.
const fieldIP = "ip"

// Redactor strips configured personal fields from events before they are
// buffered.
type Redactor struct {
	fields map[string]struct{}
	logger *slog.Logger
}

// NewRedactor creates a Redactor for the given field names. Matching is case
// insensitive.
func NewRedactor(fields []string, logger *slog.Logger) *Redactor {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			set[f] = struct{}{}
		}
	}
	return &Redactor{fields: set, logger: logger}
}

// Redact modifies event in place. The ip column is cleared when "ip" is
// configured. Keys of the "other" payload are redacted at any depth; a
// rewritten payload is stored as JSON. A payload that cannot be decoded is
// left untouched and the decode error is returned.
func (r *Redactor) Redact(event *domain.Event) error {
	if len(r.fields) == 0 {
		return nil
	}

	if _, ok := r.fields[fieldIP]; ok && event.IP != "" {
		event.IP = ""
		event.PIIRedacted = true
	}

	if event.Other == "" {
		return nil
	}
	p, err := payload.Decode(event.Other)
	if err != nil {
		return err
	}
	if !r.redactMap(p.Values) {
		return nil
	}

	encoded, err := payload.Encode(p.Values)
	if err != nil {
		return fmt.Errorf("failed to re-encode redacted payload: %w", err)
	}
	event.Other = encoded
	event.PIIRedacted = true
	return nil
}

func (r *Redactor) redactMap(m map[string]any) bool {
	redacted := false
	for k, v := range m {
		if _, ok := r.fields[strings.ToLower(k)]; ok {
			m[k] = RedactedPlaceholder
			redacted = true
			continue
		}
		if nested, ok := v.(map[string]any); ok && r.redactMap(nested) {
			redacted = true
		}
	}
	return redacted
}
