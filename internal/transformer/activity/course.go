package activity

import (
	"fmt"

	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/transformer/utils"
)

const defaultCourseName = "A Moodle course"

// Course describes a course row. Callers resolve the row with utils.ReadCourse,
// so a deleted course already arrives as the site course.
func Course(cfg *domain.TransformConfig, course domain.Record) domain.Activity {
	name := course.String("fullname")
	if name == "" {
		name = defaultCourseName
	}

	var ext map[string]any
	if cfg.SendShortCourseID && course.String("shortname") != "" {
		ext = map[string]any{ShortIDExtension: course.String("shortname")}
	}
	if cfg.SendCourseAndModuleIDNumber && course.String("idnumber") != "" {
		if ext == nil {
			ext = map[string]any{}
		}
		ext[ExternalIDExtension] = course.String("idnumber")
	}

	return domain.Activity{
		ID: fmt.Sprintf("%s/course/view.php?id=%d", cfg.AppURL, course.Int("id")),
		Definition: domain.Definition{
			Type:       TypeCourse,
			Name:       domain.LanguageMap{utils.CourseLang(course): name},
			Extensions: ext,
		},
	}
}
