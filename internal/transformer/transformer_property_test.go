package transformer

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

var propertyEvents = []string{
	`\assignsubmission_onlinetext\event\assessable_uploaded`,
	`\mod_choice\event\answer_created`,
	`\mod_choice\event\answer_deleted`,
	`\mod_data\event\record_updated`,
	`\mod_quiz\event\attempt_submitted`,
	`\core\event\course_viewed`,
	`\core\event\user_enrolment_created`,
	`\core\event\user_loggedin`,
}

func TestProperty_TransformIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	cfg := newConfig(newFixtures())
	tr := New(cfg, nil)

	properties.Property("identical inputs give byte-identical statements", prop.ForAll(
		func(kind int, userID, courseID, cmid, objectID, created int64) bool {
			event := domain.Event{
				EventName:         propertyEvents[kind],
				UserID:            userID,
				RelatedUserID:     userID + 1,
				CourseID:          courseID,
				ContextInstanceID: cmid,
				ObjectID:          objectID,
				TimeCreated:       created,
				Other:             `{"choiceid":7,"optionid":10,"dataid":3}`,
			}
			first, err := tr.Transform(context.Background(), event)
			if err != nil {
				return false
			}
			second, err := tr.Transform(context.Background(), event)
			if err != nil {
				return false
			}
			a, errA := json.Marshal(first)
			b, errB := json.Marshal(second)
			return errA == nil && errB == nil && bytes.Equal(a, b)
		},
		gen.IntRange(0, len(propertyEvents)-1),
		gen.Int64Range(0, 8),
		gen.Int64Range(0, 4),
		gen.Int64Range(40, 80),
		gen.Int64Range(0, 40),
		gen.Int64Range(0, 2000000000),
	))

	properties.Property("missing courses resolve to the site course", prop.ForAll(
		func(courseID int64) bool {
			stmts, err := tr.Transform(context.Background(), domain.Event{
				EventName: `\core\event\course_viewed`,
				UserID:    5,
				CourseID:  courseID,
			})
			if err != nil {
				return false
			}
			return stmts[0].Object.ID == appURL+"/course/view.php?id=1"
		},
		gen.Int64Range(3, 1000000),
	))

	properties.Property("every statement has all required parts", prop.ForAll(
		func(kind int, userID int64) bool {
			stmts, err := tr.Transform(context.Background(), domain.Event{
				EventName:         propertyEvents[kind],
				UserID:            userID,
				CourseID:          2,
				ContextInstanceID: 50,
				Other:             `{"choiceid":7,"optionid":99,"dataid":3}`,
			})
			if err != nil || len(stmts) != 1 {
				return false
			}
			s := stmts[0]
			return s.Actor.Name != "" && s.Verb.ID != "" && s.Object.ID != "" &&
				s.Timestamp != "" && s.Context.Language != "" &&
				len(s.Context.ContextActivities.Category) == 1
		},
		gen.IntRange(0, len(propertyEvents)-1),
		gen.Int64Range(0, 8),
	))

	properties.TestingRun(t)
}
