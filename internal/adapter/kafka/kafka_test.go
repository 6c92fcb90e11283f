package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

func TestMapStatementToMessage(t *testing.T) {
	s := domain.Statement{
		ID:        "3f1c9a34-5b7e-5d3a-9c1e-2b4f6a8d0e11",
		Verb:      domain.Verb{ID: "http://activitystrea.ms/schema/1.0/add"},
		Object:    domain.Activity{ID: "https://lms.test/mod/assign/view.php?id=42"},
		Timestamp: "2024-03-01T10:00:00+00:00",
	}

	msg, err := mapStatementToMessage(s)
	require.NoError(t, err)
	assert.Equal(t, []byte(s.ID), msg.Key)

	var decoded domain.Statement
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, s.Object.ID, decoded.Object.ID)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, contentType, headers["content-type"])
	assert.Equal(t, s.Verb.ID, headers["verb"])
}

func TestMapStatementToMessage_RequiresID(t *testing.T) {
	_, err := mapStatementToMessage(domain.Statement{})
	assert.Error(t, err)
}

func TestStatementWriter_EmptyBatch(t *testing.T) {
	w := NewStatementWriter([]string{"localhost:9092"}, "xapi.statements", slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer w.Close()
	assert.NoError(t, w.WriteStatements(context.Background(), nil))
}
