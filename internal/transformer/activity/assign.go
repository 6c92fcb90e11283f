package activity

import (
	"context"
	"fmt"
	"strings"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

// CourseAssignment describes an assignment module.
func CourseAssignment(ctx context.Context, cfg *domain.TransformConfig, lang string, cmid int64) (domain.Activity, error) {
	m, err := readModule(ctx, cfg, cmid, "assign")
	if err != nil {
		return domain.Activity{}, err
	}
	return domain.Activity{
		ID: fmt.Sprintf("%s/mod/assign/view.php?id=%d", cfg.AppURL, cmid),
		Definition: domain.Definition{
			Type:        TypeAssessment,
			Name:        domain.LanguageMap{lang: m.name("assignment")},
			Description: domain.LanguageMap{lang: m.description("the assignment")},
			Extensions:  m.extensions(cfg),
		},
	}, nil
}

// AssignmentAssessable describes the work a submission plugin uploaded to an
// assignment. component names the plugin, e.g. assignsubmission_file.
func AssignmentAssessable(ctx context.Context, cfg *domain.TransformConfig, lang string, cmid int64, component string) (domain.Activity, error) {
	m, err := readModule(ctx, cfg, cmid, "assign")
	if err != nil {
		return domain.Activity{}, err
	}
	xapiType := TypeEssay
	if strings.HasSuffix(component, "_file") {
		xapiType = TypeFile
	}
	return domain.Activity{
		ID: fmt.Sprintf("%s/mod/assign/view.php?id=%d&plugin=%s", cfg.AppURL, cmid, component),
		Definition: domain.Definition{
			Type:        xapiType,
			Name:        domain.LanguageMap{lang: m.name("assignment") + " submission"},
			Description: domain.LanguageMap{lang: m.description("an assignment submission")},
		},
	}, nil
}
