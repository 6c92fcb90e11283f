package domain

import (
	"strings"
	"time"
)

// Event is a single row of the LMS standard log as posted by the LMS.
// Field names follow the logstore columns so rows can be forwarded verbatim.
type Event struct {
	ID                int64  `json:"id"`
	EventName         string `json:"eventname"`
	Component         string `json:"component"`
	Action            string `json:"action"`
	Target            string `json:"target"`
	ObjectTable       string `json:"objecttable,omitempty"`
	ObjectID          int64  `json:"objectid,omitempty"`
	CRUD              string `json:"crud,omitempty"`
	EduLevel          int    `json:"edulevel,omitempty"`
	ContextID         int64  `json:"contextid,omitempty"`
	ContextLevel      int    `json:"contextlevel,omitempty"`
	ContextInstanceID int64  `json:"contextinstanceid"`
	UserID            int64  `json:"userid"`
	CourseID          int64  `json:"courseid"`
	RelatedUserID     int64  `json:"relateduserid,omitempty"`
	Anonymous         int    `json:"anonymous,omitempty"`
	Other             string `json:"other,omitempty"`
	TimeCreated       int64  `json:"timecreated"`
	Origin            string `json:"origin,omitempty"`
	IP                string `json:"ip,omitempty"`
	RealUserID        int64  `json:"realuserid,omitempty"`

	// Set by the ingest service.
	BridgeID    string    `json:"bridge_id,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
	PIIRedacted bool      `json:"pii_redacted,omitempty"`

	// StreamMessageID is the buffer message id this event was read from.
	StreamMessageID string `json:"-"`
}

// RuleKey identifies a transform by the component and short event name,
// e.g. {"mod_choice", "answer_deleted"} for \mod_choice\event\answer_deleted.
type RuleKey struct {
	Component string
	Name      string
}

func (k RuleKey) String() string {
	return k.Component + "." + k.Name
}

// Key parses the fully qualified event class name. Events whose name does not
// follow the \component\event\name form fall back to the Component column.
func (e Event) Key() RuleKey {
	parts := strings.Split(strings.TrimPrefix(e.EventName, `\`), `\`)
	if len(parts) == 3 && parts[1] == "event" {
		return RuleKey{Component: parts[0], Name: parts[2]}
	}
	return RuleKey{Component: e.Component, Name: parts[len(parts)-1]}
}
