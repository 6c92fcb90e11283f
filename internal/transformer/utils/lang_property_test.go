package utils

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

func TestProperty_CourseLangIsTotal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("any course resolves to a non-empty language", prop.ForAll(
		func(lang string, hasLang bool) bool {
			course := domain.Record{"id": int64(1)}
			if hasLang {
				course["lang"] = lang
			}
			return CourseLang(course) != ""
		},
		gen.AnyString(),
		gen.Bool(),
	))

	properties.Property("a non-blank language is kept", prop.ForAll(
		func(lang string) bool {
			return CourseLang(domain.Record{"lang": lang}) == lang
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
