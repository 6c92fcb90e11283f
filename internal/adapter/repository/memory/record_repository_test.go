package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

func TestRecordRepository_ReadRecordByID(t *testing.T) {
	repo := NewRecordRepository()
	repo.Put("course", domain.Record{"id": int64(2), "fullname": "Biology"})

	rec, err := repo.ReadRecordByID(context.Background(), "course", 2)
	require.NoError(t, err)
	assert.Equal(t, "Biology", rec.String("fullname"))

	rec["fullname"] = "changed"
	again, err := repo.ReadRecordByID(context.Background(), "course", 2)
	require.NoError(t, err)
	assert.Equal(t, "Biology", again.String("fullname"), "callers must not be able to mutate stored rows")

	_, err = repo.ReadRecordByID(context.Background(), "course", 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	repo.Delete("course", 2)
	_, err = repo.ReadRecordByID(context.Background(), "course", 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordRepository_SetError(t *testing.T) {
	repo := NewRecordRepository()
	repo.Put("user", domain.Record{"id": int64(1)})
	boom := errors.New("connection refused")

	repo.SetError("user", boom)
	_, err := repo.ReadRecordByID(context.Background(), "user", 1)
	assert.ErrorIs(t, err, boom)

	repo.SetError("user", nil)
	_, err = repo.ReadRecordByID(context.Background(), "user", 1)
	assert.NoError(t, err)
}

func TestLoadFixtures(t *testing.T) {
	repo, err := LoadFixtures(strings.NewReader(`{
		"course": [{"id": 1, "fullname": "Site", "lang": "fr"}],
		"user": [{"id": 5, "firstname": "Ada", "lastname": "Lovelace"}]
	}`))
	require.NoError(t, err)

	course, err := repo.ReadRecordByID(context.Background(), "course", 1)
	require.NoError(t, err)
	assert.Equal(t, "fr", course.String("lang"))
	assert.Equal(t, int64(1), course.Int("id"))

	_, err = LoadFixtures(strings.NewReader(`{"course": [{"fullname": "no id"}]}`))
	assert.Error(t, err)
}
