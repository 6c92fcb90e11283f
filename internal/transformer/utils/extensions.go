package utils

import "github.com/V4T54L/xapi-bridge/internal/domain"

const (
	InfoExtension       = "http://lrs.learninglocker.net/define/extensions/info"
	CourseAreaExtension = "http://xapi.jisc.ac.uk/courseArea"

	courseShortNameKey = "http://xapi.jisc.ac.uk/vle_mod_id"
	courseIDNumberKey  = "http://xapi.jisc.ac.uk/uddModInstanceId"
)

// BaseExtensions returns the context extensions shared by every statement.
// function names the transform rule that produced the statement.
func BaseExtensions(cfg *domain.TransformConfig, event domain.Event, course domain.Record, function string) map[string]any {
	info := map[string]any{
		"event_name":     event.EventName,
		"event_function": function,
		"component":      event.Component,
	}
	if cfg.SourceURL != "" {
		info[cfg.SourceURL] = cfg.SourceVersion
	}

	area := map[string]any{
		courseShortNameKey: course.String("shortname"),
	}
	if idnumber := course.String("idnumber"); idnumber != "" {
		area[courseIDNumberKey] = idnumber
	}

	return map[string]any{
		InfoExtension:       info,
		CourseAreaExtension: area,
	}
}
