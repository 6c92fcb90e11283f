package activity

import (
	"context"
	"fmt"

	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/transformer/utils"
)

// Record describes an entry of a database module.
func Record(ctx context.Context, cfg *domain.TransformConfig, lang string, recordID, databaseID, cmid int64) (domain.Activity, error) {
	cm, _, err := utils.ReadRecord(ctx, cfg, "course_modules", cmid)
	if err != nil {
		return domain.Activity{}, err
	}
	m := module{cm: cm}
	return domain.Activity{
		ID: fmt.Sprintf("%s/mod/data/view.php?d=%d&rid=%d", cfg.AppURL, databaseID, recordID),
		Definition: domain.Definition{
			Type:        TypeArticle,
			Name:        domain.LanguageMap{lang: "Database record"},
			Description: domain.LanguageMap{lang: m.description("the record of the database")},
		},
	}, nil
}
