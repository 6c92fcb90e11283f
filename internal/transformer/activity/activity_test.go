package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/xapi-bridge/internal/adapter/repository/memory"
	"github.com/V4T54L/xapi-bridge/internal/domain"
)

const appURL = "https://lms.test"

func newConfig(repo domain.RecordRepository) *domain.TransformConfig {
	return &domain.TransformConfig{
		Repo:       repo,
		SourceName: "Moodle",
		AppURL:     appURL,
		SourceURL:  "http://moodle.org",
	}
}

func TestRecord(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cm   domain.Record
		want string
	}{
		{"live module", domain.Record{"id": int64(42), "deletioninprogress": int64(0)}, "the record of the database"},
		{"deletion in progress", domain.Record{"id": int64(42), "deletioninprogress": int64(1)}, DescriptionDeletionInProgress},
		{"module deleted", nil, DescriptionDeleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.NewRecordRepository()
			if tt.cm != nil {
				repo.Put("course_modules", tt.cm)
			}

			got, err := Record(ctx, newConfig(repo), "en", 3, 8, 42)
			require.NoError(t, err)

			assert.Equal(t, appURL+"/mod/data/view.php?d=8&rid=3", got.ID)
			assert.Equal(t, TypeArticle, got.Definition.Type)
			assert.Equal(t, "Database record", got.Definition.Name["en"])
			assert.Equal(t, tt.want, got.Definition.Description["en"])
		})
	}
}

func TestCourseModule(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRecordRepository()
	repo.Put("course_modules", domain.Record{"id": int64(10), "instance": int64(4), "idnumber": "F-1"})
	repo.Put("forum", domain.Record{"id": int64(4), "name": "Announcements"})
	cfg := newConfig(repo)

	got, err := CourseModule(ctx, cfg, "fr", 10, "forum", TypeForum)
	require.NoError(t, err)
	assert.Equal(t, appURL+"/mod/forum/view.php?id=10", got.ID)
	assert.Equal(t, domain.LanguageMap{"fr": "Announcements"}, got.Definition.Name)
	assert.Equal(t, domain.LanguageMap{"fr": "the forum activity"}, got.Definition.Description)
	assert.Nil(t, got.Definition.Extensions)

	cfg.SendCourseAndModuleIDNumber = true
	got, err = CourseModule(ctx, cfg, "fr", 10, "forum", TypeForum)
	require.NoError(t, err)
	assert.Equal(t, "F-1", got.Definition.Extensions[ExternalIDExtension])

	t.Run("deleted module keeps a stable id", func(t *testing.T) {
		got, err := CourseModule(ctx, cfg, "en", 11, "page", TypeWebpage)
		require.NoError(t, err)
		assert.Equal(t, appURL+"/mod/page/view.php?id=11", got.ID)
		assert.Equal(t, "page", got.Definition.Name["en"])
		assert.Equal(t, DescriptionDeleted, got.Definition.Description["en"])
	})
}

func TestSiteAndCourse(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRecordRepository()
	repo.Put("course", domain.Record{"id": int64(1), "fullname": "Open University", "lang": "de"})
	cfg := newConfig(repo)

	site, err := Site(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, appURL, site.ID)
	assert.Equal(t, domain.LanguageMap{"de": "Open University"}, site.Definition.Name)

	course := Course(cfg, domain.Record{"id": int64(7), "shortname": "BIO", "idnumber": "B7"})
	assert.Equal(t, appURL+"/course/view.php?id=7", course.ID)
	assert.Equal(t, domain.LanguageMap{"en": defaultCourseName}, course.Definition.Name)
	assert.Nil(t, course.Definition.Extensions)

	cfg.SendShortCourseID = true
	cfg.SendCourseAndModuleIDNumber = true
	course = Course(cfg, domain.Record{"id": int64(7), "shortname": "BIO", "idnumber": "B7"})
	assert.Equal(t, map[string]any{ShortIDExtension: "BIO", ExternalIDExtension: "B7"}, course.Definition.Extensions)

	source := Source(cfg, "de")
	assert.Equal(t, "http://moodle.org", source.ID)
	assert.Equal(t, domain.LanguageMap{"de": "Moodle"}, source.Definition.Name)
}

func TestSite_NoSiteCourse(t *testing.T) {
	site, err := Site(context.Background(), newConfig(memory.NewRecordRepository()))
	require.NoError(t, err)
	assert.Equal(t, domain.LanguageMap{"en": "Moodle"}, site.Definition.Name)
}

func TestChoice(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRecordRepository()
	repo.Put("course_modules", domain.Record{"id": int64(42), "instance": int64(7)})
	repo.Put("choice", domain.Record{"id": int64(7), "name": "Lunch?"})

	got, err := Choice(ctx, newConfig(repo), "en", 42, 7)
	require.NoError(t, err)
	assert.Equal(t, appURL+"/mod/choice/view.php?id=42&choiceid=7", got.ID)
	assert.Equal(t, TypeInteraction, got.Definition.Type)
	assert.Equal(t, "choice", got.Definition.InteractionType)
	assert.Equal(t, "Lunch?", got.Definition.Name["en"])
	assert.Equal(t, "the choice", got.Definition.Description["en"])

	got, err = Choice(ctx, newConfig(repo), "en", 42, 8)
	require.NoError(t, err)
	assert.Equal(t, "choice", got.Definition.Name["en"])
}

func TestAssignment(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRecordRepository()
	repo.Put("course_modules", domain.Record{"id": int64(42), "instance": int64(3)})
	repo.Put("assign", domain.Record{"id": int64(3), "name": "Essay 1"})
	cfg := newConfig(repo)

	assignment, err := CourseAssignment(ctx, cfg, "en", 42)
	require.NoError(t, err)
	assert.Equal(t, appURL+"/mod/assign/view.php?id=42", assignment.ID)
	assert.Equal(t, TypeAssessment, assignment.Definition.Type)
	assert.Equal(t, "Essay 1", assignment.Definition.Name["en"])

	file, err := AssignmentAssessable(ctx, cfg, "en", 42, "assignsubmission_file")
	require.NoError(t, err)
	assert.Equal(t, TypeFile, file.Definition.Type)
	assert.Equal(t, "Essay 1 submission", file.Definition.Name["en"])

	text, err := AssignmentAssessable(ctx, cfg, "en", 42, "assignsubmission_onlinetext")
	require.NoError(t, err)
	assert.Equal(t, TypeEssay, text.Definition.Type)
	assert.NotEqual(t, file.ID, text.ID)
}

func TestForumDiscussionAndQuizAttempt(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewRecordRepository()
	repo.Put("course_modules", domain.Record{"id": int64(5)})
	repo.Put("quiz_attempts", domain.Record{"id": int64(30), "attempt": int64(2)})
	cfg := newConfig(repo)

	discussion, err := ForumDiscussion(ctx, cfg, "en", 9, 5)
	require.NoError(t, err)
	assert.Equal(t, appURL+"/mod/forum/discuss.php?d=9", discussion.ID)
	assert.Equal(t, DiscussionDeleted, discussion.Definition.Name["en"])

	attempt, err := QuizAttempt(ctx, cfg, "en", 30, 5)
	require.NoError(t, err)
	assert.Equal(t, "attempt 2", attempt.Definition.Name["en"])

	attempt, err = QuizAttempt(ctx, cfg, "en", 31, 5)
	require.NoError(t, err)
	assert.Equal(t, AttemptDeleted, attempt.Definition.Name["en"])
}

func TestBuilders_PropagateRepositoryErrors(t *testing.T) {
	repo := memory.NewRecordRepository()
	repo.SetError("course_modules", errors.New("connection reset"))

	_, err := Record(context.Background(), newConfig(repo), "en", 1, 1, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
