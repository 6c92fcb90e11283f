package activity

import (
	"context"
	"fmt"

	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/transformer/utils"
)

// Choice describes the question of a choice module as an interaction. Its id
// differs from the module's so both can appear in one statement.
func Choice(ctx context.Context, cfg *domain.TransformConfig, lang string, cmid, choiceID int64) (domain.Activity, error) {
	cm, _, err := utils.ReadRecord(ctx, cfg, "course_modules", cmid)
	if err != nil {
		return domain.Activity{}, err
	}
	choice, _, err := utils.ReadRecord(ctx, cfg, "choice", choiceID)
	if err != nil {
		return domain.Activity{}, err
	}
	m := module{cm: cm, instance: choice}
	return domain.Activity{
		ID: fmt.Sprintf("%s/mod/choice/view.php?id=%d&choiceid=%d", cfg.AppURL, cmid, choiceID),
		Definition: domain.Definition{
			Type:            TypeInteraction,
			Name:            domain.LanguageMap{lang: m.name("choice")},
			Description:     domain.LanguageMap{lang: m.description("the choice")},
			InteractionType: "choice",
		},
	}, nil
}
