package activity

import (
	"context"

	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/transformer/utils"
)

// Site describes the LMS installation, named after the site course.
func Site(ctx context.Context, cfg *domain.TransformConfig) (domain.Activity, error) {
	site, err := utils.ReadCourse(ctx, cfg, utils.DefaultCourseID)
	if err != nil {
		return domain.Activity{}, err
	}
	name := site.String("fullname")
	if name == "" {
		name = cfg.SourceName
	}
	return domain.Activity{
		ID: cfg.AppURL,
		Definition: domain.Definition{
			Type: TypeSite,
			Name: domain.LanguageMap{utils.CourseLang(site): name},
		},
	}, nil
}

// Source is the single category activity naming the platform.
func Source(cfg *domain.TransformConfig, lang string) domain.Activity {
	id := cfg.SourceURL
	if id == "" {
		id = "http://moodle.org"
	}
	return domain.Activity{
		ID: id,
		Definition: domain.Definition{
			Type:        TypeSource,
			Name:        domain.LanguageMap{lang: cfg.SourceName},
			Description: domain.LanguageMap{lang: cfg.SourceName},
		},
	}
}
