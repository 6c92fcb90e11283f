package activity

import (
	"context"
	"fmt"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

// CourseModule describes a module instance such as a forum, quiz or page.
// modname is the module table, which also forms the view URL.
func CourseModule(ctx context.Context, cfg *domain.TransformConfig, lang string, cmid int64, modname, xapiType string) (domain.Activity, error) {
	m, err := readModule(ctx, cfg, cmid, modname)
	if err != nil {
		return domain.Activity{}, err
	}
	return domain.Activity{
		ID: fmt.Sprintf("%s/mod/%s/view.php?id=%d", cfg.AppURL, modname, cmid),
		Definition: domain.Definition{
			Type:        xapiType,
			Name:        domain.LanguageMap{lang: m.name(modname)},
			Description: domain.LanguageMap{lang: m.description(fmt.Sprintf("the %s activity", modname))},
			Extensions:  m.extensions(cfg),
		},
	}, nil
}
