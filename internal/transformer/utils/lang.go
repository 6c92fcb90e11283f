package utils

import (
	"strings"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

// DefaultLang is used for courses without a forced language.
const DefaultLang = "en"

// CourseLang returns the course's forced language, or DefaultLang.
func CourseLang(course domain.Record) string {
	if lang := strings.TrimSpace(course.String("lang")); lang != "" {
		return lang
	}
	return DefaultLang
}
