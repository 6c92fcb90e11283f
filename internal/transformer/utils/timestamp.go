package utils

import (
	"time"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

// timestampLayout matches ISO 8601 with a numeric offset, e.g. 2024-03-01T10:00:00+00:00.
const timestampLayout = "2006-01-02T15:04:05-07:00"

// EventTimestamp renders the event's creation time in UTC.
func EventTimestamp(event domain.Event) string {
	return time.Unix(event.TimeCreated, 0).UTC().Format(timestampLayout)
}
