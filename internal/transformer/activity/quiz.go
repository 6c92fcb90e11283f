package activity

import (
	"context"
	"fmt"

	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/transformer/utils"
)

// AttemptDeleted names a quiz attempt whose row is gone.
const AttemptDeleted = "attempt deleted"

// QuizAttempt describes one attempt at a quiz.
func QuizAttempt(ctx context.Context, cfg *domain.TransformConfig, lang string, attemptID, cmid int64) (domain.Activity, error) {
	cm, _, err := utils.ReadRecord(ctx, cfg, "course_modules", cmid)
	if err != nil {
		return domain.Activity{}, err
	}
	attempt, found, err := utils.ReadRecord(ctx, cfg, "quiz_attempts", attemptID)
	if err != nil {
		return domain.Activity{}, err
	}
	name := AttemptDeleted
	if found {
		name = fmt.Sprintf("attempt %d", attempt.Int("attempt"))
	}
	m := module{cm: cm}
	return domain.Activity{
		ID: fmt.Sprintf("%s/mod/quiz/attempt.php?attempt=%d", cfg.AppURL, attemptID),
		Definition: domain.Definition{
			Type:        TypeAttempt,
			Name:        domain.LanguageMap{lang: name},
			Description: domain.LanguageMap{lang: m.description("a quiz attempt")},
		},
	}, nil
}
