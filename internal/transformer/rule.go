package transformer

import (
	"context"

	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/transformer/payload"
)

// VerbDef is a verb URI with its English display text.
type VerbDef struct {
	ID      string
	Display string
}

// ActorSource selects whose user row becomes the statement actor.
type ActorSource int

const (
	// ActorUser is the user who triggered the event.
	ActorUser ActorSource = iota
	// ActorRelatedUser is the user the event was about, e.g. the enrolled student.
	ActorRelatedUser
)

// ActivityFunc builds one activity for an event.
type ActivityFunc func(ctx context.Context, s *Scope) (domain.Activity, error)

// ResultFunc builds the optional statement result.
type ResultFunc func(ctx context.Context, s *Scope) (*domain.Result, error)

// Rule describes how one event type becomes a statement. Grouping entries
// are emitted in order and must run from site to the most specific activity.
type Rule struct {
	Verb     VerbDef
	Actor    ActorSource
	Object   ActivityFunc
	Grouping []ActivityFunc
	Result   ResultFunc
}

// Scope is the per-event state shared by a rule's builders.
type Scope struct {
	Config *domain.TransformConfig
	Event  domain.Event
	Key    domain.RuleKey
	Course domain.Record
	Lang   string

	decoded    bool
	payload    payload.Payload
	payloadErr error
}

// Payload decodes the event's "other" column once per transform.
func (s *Scope) Payload() (payload.Payload, error) {
	if !s.decoded {
		s.payload, s.payloadErr = payload.Decode(s.Event.Other)
		s.decoded = true
	}
	return s.payload, s.payloadErr
}

// PayloadInt reads an integer field of the "other" payload.
func (s *Scope) PayloadInt(key string) (int64, error) {
	p, err := s.Payload()
	if err != nil {
		return 0, err
	}
	return p.Int(key)
}
