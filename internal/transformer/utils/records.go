package utils

import (
	"context"
	"errors"
	"fmt"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

// DefaultCourseID is the site course every LMS install has.
const DefaultCourseID = 1

type fallbackHookKey struct{}

// WithFallbackHook attaches fn to ctx. ReadRecord calls it for every lookup
// that missed, with the table that was read. Hooks already on ctx still run.
func WithFallbackHook(ctx context.Context, fn func(table string)) context.Context {
	if prev, ok := ctx.Value(fallbackHookKey{}).(func(string)); ok && prev != nil {
		next := fn
		fn = func(table string) {
			prev(table)
			next(table)
		}
	}
	return context.WithValue(ctx, fallbackHookKey{}, fn)
}

func reportFallback(ctx context.Context, table string) {
	if fn, ok := ctx.Value(fallbackHookKey{}).(func(string)); ok && fn != nil {
		fn(table)
	}
}

// ReadRecord reads a row and reports a miss as found=false. Only errors other
// than domain.ErrNotFound are returned.
func ReadRecord(ctx context.Context, cfg *domain.TransformConfig, table string, id int64) (domain.Record, bool, error) {
	rec, err := cfg.Repo.ReadRecordByID(ctx, table, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			reportFallback(ctx, table)
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s %d: %w", table, id, err)
	}
	return rec, true, nil
}

// ReadCourse reads a course, substituting the site course when it is gone.
// If the site course is missing too, a minimal stand-in named after the
// platform is returned.
func ReadCourse(ctx context.Context, cfg *domain.TransformConfig, id int64) (domain.Record, error) {
	if id > 0 && id != DefaultCourseID {
		course, found, err := ReadRecord(ctx, cfg, "course", id)
		if err != nil || found {
			return course, err
		}
	}
	course, found, err := ReadRecord(ctx, cfg, "course", DefaultCourseID)
	if err != nil || found {
		return course, err
	}
	return domain.Record{"id": int64(DefaultCourseID), "fullname": cfg.SourceName}, nil
}
