package activity

import (
	"context"
	"fmt"

	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/transformer/utils"
)

// DiscussionDeleted names a discussion whose row is gone.
const DiscussionDeleted = "discussion deleted"

// ForumDiscussion describes a discussion thread in a forum module.
func ForumDiscussion(ctx context.Context, cfg *domain.TransformConfig, lang string, discussionID, cmid int64) (domain.Activity, error) {
	cm, _, err := utils.ReadRecord(ctx, cfg, "course_modules", cmid)
	if err != nil {
		return domain.Activity{}, err
	}
	discussion, _, err := utils.ReadRecord(ctx, cfg, "forum_discussions", discussionID)
	if err != nil {
		return domain.Activity{}, err
	}
	m := module{cm: cm, instance: discussion}
	return domain.Activity{
		ID: fmt.Sprintf("%s/mod/forum/discuss.php?d=%d", cfg.AppURL, discussionID),
		Definition: domain.Definition{
			Type:        TypeDiscussion,
			Name:        domain.LanguageMap{lang: m.name(DiscussionDeleted)},
			Description: domain.LanguageMap{lang: m.description("a forum discussion")},
		},
	}, nil
}
