package transformer

import (
	"context"
	"math"

	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/transformer/activity"
	"github.com/V4T54L/xapi-bridge/internal/transformer/utils"
)

// ResponseDeleted replaces a choice answer whose option row is gone.
const ResponseDeleted = "response deleted"

// viewedModules maps module tables to the activity type of their
// course_module_viewed statements.
var viewedModules = map[string]string{
	"forum":    activity.TypeForum,
	"page":     activity.TypeWebpage,
	"resource": activity.TypeDocument,
	"url":      activity.TypeLink,
	"quiz":     activity.TypeAssessment,
	"data":     activity.TypeDatabase,
	"choice":   activity.TypePoll,
	"assign":   activity.TypeAssessment,
}

// DefaultRules returns the rule table for every supported event.
func DefaultRules() map[domain.RuleKey]Rule {
	rules := map[domain.RuleKey]Rule{
		{Component: "assignsubmission_onlinetext", Name: "assessable_uploaded"}: {
			Verb:     VerbAdded,
			Object:   assessable,
			Grouping: []ActivityFunc{site, course, assignment},
		},
		{Component: "assignsubmission_file", Name: "assessable_uploaded"}: {
			Verb:     VerbAdded,
			Object:   assessable,
			Grouping: []ActivityFunc{site, course, assignment},
		},
		{Component: "mod_assign", Name: "assessable_submitted"}: {
			Verb:     VerbSubmitted,
			Object:   assignment,
			Grouping: []ActivityFunc{site, course},
			Result:   completed,
		},
		{Component: "mod_choice", Name: "answer_created"}: {
			Verb:     VerbAnswered,
			Object:   choice,
			Grouping: []ActivityFunc{site, course, courseModule("choice")},
			Result:   choiceResponse,
		},
		{Component: "mod_choice", Name: "answer_deleted"}: {
			Verb:     VerbDeleted,
			Object:   choice,
			Grouping: []ActivityFunc{site, course, courseModule("choice")},
			Result:   choiceResponse,
		},
		{Component: "mod_data", Name: "record_created"}: {
			Verb:     VerbCreated,
			Object:   dataRecord,
			Grouping: []ActivityFunc{site, course, courseModule("data")},
		},
		{Component: "mod_data", Name: "record_updated"}: {
			Verb:     VerbUpdated,
			Object:   dataRecord,
			Grouping: []ActivityFunc{site, course, courseModule("data")},
		},
		{Component: "mod_data", Name: "record_deleted"}: {
			Verb:     VerbDeleted,
			Object:   dataRecord,
			Grouping: []ActivityFunc{site, course, courseModule("data")},
		},
		{Component: "mod_forum", Name: "discussion_created"}: {
			Verb:     VerbCreated,
			Object:   discussion,
			Grouping: []ActivityFunc{site, course, courseModule("forum")},
		},
		{Component: "mod_quiz", Name: "attempt_started"}: {
			Verb:     VerbStarted,
			Object:   quizAttempt,
			Grouping: []ActivityFunc{site, course, courseModule("quiz")},
		},
		{Component: "mod_quiz", Name: "attempt_submitted"}: {
			Verb:     VerbCompleted,
			Object:   quizAttempt,
			Grouping: []ActivityFunc{site, course, courseModule("quiz")},
			Result:   quizScore,
		},
		{Component: "core", Name: "course_viewed"}: {
			Verb:     VerbViewed,
			Object:   course,
			Grouping: []ActivityFunc{site},
		},
		{Component: "core", Name: "user_enrolment_created"}: {
			Verb:     VerbEnrolled,
			Actor:    ActorRelatedUser,
			Object:   course,
			Grouping: []ActivityFunc{site},
		},
		{Component: "core", Name: "user_loggedin"}: {
			Verb:   VerbLoggedIn,
			Object: site,
		},
	}

	for modname := range viewedModules {
		rules[domain.RuleKey{Component: "mod_" + modname, Name: "course_module_viewed"}] = Rule{
			Verb:     VerbViewed,
			Object:   courseModule(modname),
			Grouping: []ActivityFunc{site, course},
		}
	}
	return rules
}

func site(ctx context.Context, s *Scope) (domain.Activity, error) {
	return activity.Site(ctx, s.Config)
}

func course(_ context.Context, s *Scope) (domain.Activity, error) {
	return activity.Course(s.Config, s.Course), nil
}

func courseModule(modname string) ActivityFunc {
	return func(ctx context.Context, s *Scope) (domain.Activity, error) {
		return activity.CourseModule(ctx, s.Config, s.Lang, s.Event.ContextInstanceID, modname, viewedModules[modname])
	}
}

func assignment(ctx context.Context, s *Scope) (domain.Activity, error) {
	return activity.CourseAssignment(ctx, s.Config, s.Lang, s.Event.ContextInstanceID)
}

func assessable(ctx context.Context, s *Scope) (domain.Activity, error) {
	return activity.AssignmentAssessable(ctx, s.Config, s.Lang, s.Event.ContextInstanceID, s.Key.Component)
}

func choice(ctx context.Context, s *Scope) (domain.Activity, error) {
	choiceID, err := s.PayloadInt("choiceid")
	if err != nil {
		return domain.Activity{}, err
	}
	return activity.Choice(ctx, s.Config, s.Lang, s.Event.ContextInstanceID, choiceID)
}

func dataRecord(ctx context.Context, s *Scope) (domain.Activity, error) {
	dataID, err := s.PayloadInt("dataid")
	if err != nil {
		return domain.Activity{}, err
	}
	return activity.Record(ctx, s.Config, s.Lang, s.Event.ObjectID, dataID, s.Event.ContextInstanceID)
}

func discussion(ctx context.Context, s *Scope) (domain.Activity, error) {
	return activity.ForumDiscussion(ctx, s.Config, s.Lang, s.Event.ObjectID, s.Event.ContextInstanceID)
}

func quizAttempt(ctx context.Context, s *Scope) (domain.Activity, error) {
	return activity.QuizAttempt(ctx, s.Config, s.Lang, s.Event.ObjectID, s.Event.ContextInstanceID)
}

func completed(context.Context, *Scope) (*domain.Result, error) {
	done := true
	return &domain.Result{Completion: &done}, nil
}

// choiceResponse reports the text of the chosen option.
func choiceResponse(ctx context.Context, s *Scope) (*domain.Result, error) {
	optionID, err := s.PayloadInt("optionid")
	if err != nil {
		return nil, err
	}
	option, found, err := utils.ReadRecord(ctx, s.Config, "choice_options", optionID)
	if err != nil {
		return nil, err
	}
	if !found {
		return &domain.Result{Response: ResponseDeleted}, nil
	}
	return &domain.Result{Response: option.String("text")}, nil
}

// quizScore reports the attempt's grade scaled against the quiz maximum.
// Without the attempt or quiz rows, or with grades that are not finite
// numbers, only completion is known.
func quizScore(ctx context.Context, s *Scope) (*domain.Result, error) {
	done := true
	result := &domain.Result{Completion: &done}

	attempt, found, err := utils.ReadRecord(ctx, s.Config, "quiz_attempts", s.Event.ObjectID)
	if err != nil || !found {
		return result, err
	}
	quiz, found, err := utils.ReadRecord(ctx, s.Config, "quiz", attempt.Int("quiz"))
	if err != nil || !found {
		return result, err
	}

	raw, maxGrade := attempt.Float("sumgrades"), quiz.Float("sumgrades")
	if !isFinite(raw) || !isFinite(maxGrade) || maxGrade <= 0 {
		return result, nil
	}
	result.Score = &domain.Score{Raw: raw, Min: 0, Max: maxGrade, Scaled: raw / maxGrade}
	return result, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
