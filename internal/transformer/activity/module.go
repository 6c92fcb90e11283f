package activity

import (
	"context"

	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/transformer/utils"
)

// module is a course_modules row joined with its instance row. Either may be nil.
type module struct {
	cm       domain.Record
	instance domain.Record
}

// readModule loads the course module and the instance row from modname's table.
func readModule(ctx context.Context, cfg *domain.TransformConfig, cmid int64, modname string) (module, error) {
	cm, found, err := utils.ReadRecord(ctx, cfg, "course_modules", cmid)
	if err != nil || !found {
		return module{}, err
	}
	instance, _, err := utils.ReadRecord(ctx, cfg, modname, cm.Int("instance"))
	if err != nil {
		return module{}, err
	}
	return module{cm: cm, instance: instance}, nil
}

// description picks the module status text, or standard for a live module.
func (m module) description(standard string) string {
	switch {
	case m.cm == nil:
		return DescriptionDeleted
	case m.cm.Int("deletioninprogress") != 0:
		return DescriptionDeletionInProgress
	}
	return standard
}

// name is the instance name, or fallback when the instance is gone.
func (m module) name(fallback string) string {
	if n := m.instance.String("name"); n != "" {
		return n
	}
	return fallback
}

func (m module) extensions(cfg *domain.TransformConfig) map[string]any {
	if !cfg.SendCourseAndModuleIDNumber || m.cm.String("idnumber") == "" {
		return nil
	}
	return map[string]any{ExternalIDExtension: m.cm.String("idnumber")}
}
