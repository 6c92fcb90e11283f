// Package transformer turns LMS log events into xAPI statements by looking up
// a Rule for the event and running its builders.
package transformer

import (
	"context"
	"log/slog"
	"sort"

	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/transformer/activity"
	"github.com/V4T54L/xapi-bridge/internal/transformer/utils"
)

// Transformer applies the rule table. It holds no per-event state and is safe
// for concurrent use.
type Transformer struct {
	cfg    *domain.TransformConfig
	rules  map[domain.RuleKey]Rule
	logger *slog.Logger
}

// New creates a Transformer over DefaultRules. A nil logger discards output.
func New(cfg *domain.TransformConfig, logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Transformer{
		cfg:    cfg,
		rules:  DefaultRules(),
		logger: logger.With("component", "transformer"),
	}
}

// Transform is the functional form of (*Transformer).Transform.
func Transform(ctx context.Context, cfg *domain.TransformConfig, event domain.Event) ([]domain.Statement, error) {
	return New(cfg, nil).Transform(ctx, event)
}

// Supported lists the events with a rule, sorted by component and name.
func (t *Transformer) Supported() []domain.RuleKey {
	keys := make([]domain.RuleKey, 0, len(t.rules))
	for k := range t.rules {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
	return keys
}

// Transform builds the statements for one event. Missing rows are replaced
// by placeholders; errors are returned only for unsupported events, malformed
// payloads and repository failures, always wrapped in *domain.TransformError.
func (t *Transformer) Transform(ctx context.Context, event domain.Event) ([]domain.Statement, error) {
	key := event.Key()
	rule, ok := t.rules[key]
	if !ok {
		return nil, &domain.TransformError{EventName: event.EventName, EventID: event.ID, Err: domain.ErrUnsupportedEvent}
	}

	ctx = utils.WithFallbackHook(ctx, func(table string) {
		t.logger.Debug("record missing, using fallback", "event_id", event.ID, "event", key.String(), "table", table)
	})

	stmt, err := t.apply(ctx, key, rule, event)
	if err != nil {
		return nil, &domain.TransformError{EventName: event.EventName, EventID: event.ID, Err: err}
	}
	return []domain.Statement{stmt}, nil
}

func (t *Transformer) apply(ctx context.Context, key domain.RuleKey, rule Rule, event domain.Event) (domain.Statement, error) {
	course, err := utils.ReadCourse(ctx, t.cfg, event.CourseID)
	if err != nil {
		return domain.Statement{}, err
	}
	s := &Scope{
		Config: t.cfg,
		Event:  event,
		Key:    key,
		Course: course,
		Lang:   utils.CourseLang(course),
	}

	actor, err := t.actor(ctx, s, rule.Actor)
	if err != nil {
		return domain.Statement{}, err
	}

	object, err := rule.Object(ctx, s)
	if err != nil {
		return domain.Statement{}, err
	}

	grouping := make([]domain.Activity, 0, len(rule.Grouping))
	for _, build := range rule.Grouping {
		a, err := build(ctx, s)
		if err != nil {
			return domain.Statement{}, err
		}
		grouping = append(grouping, a)
	}

	var result *domain.Result
	if rule.Result != nil {
		if result, err = rule.Result(ctx, s); err != nil {
			return domain.Statement{}, err
		}
	}

	return domain.Statement{
		Actor:     actor,
		Verb:      domain.Verb{ID: rule.Verb.ID, Display: domain.LanguageMap{s.Lang: rule.Verb.Display}},
		Object:    object,
		Timestamp: utils.EventTimestamp(event),
		Result:    result,
		Context: domain.Context{
			Platform:   t.cfg.SourceName,
			Language:   s.Lang,
			Extensions: utils.BaseExtensions(t.cfg, event, course, key.String()),
			ContextActivities: domain.ContextActivities{
				Grouping: grouping,
				Category: []domain.Activity{activity.Source(t.cfg, s.Lang)},
			},
		},
	}, nil
}

func (t *Transformer) actor(ctx context.Context, s *Scope, source ActorSource) (domain.Actor, error) {
	userID := s.Event.UserID
	if source == ActorRelatedUser {
		userID = s.Event.RelatedUserID
	}
	user, found, err := utils.ReadRecord(ctx, t.cfg, "user", userID)
	if err != nil {
		return domain.Actor{}, err
	}
	if !found {
		return utils.DeletedUser(t.cfg, userID), nil
	}
	return utils.User(t.cfg, user), nil
}
