package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

const fixtures = `{
  "course": [{"id": 1, "fullname": "Test Site"}, {"id": 2, "fullname": "Biology", "lang": "fr"}],
  "user": [{"id": 5, "username": "ada", "firstname": "Ada", "lastname": "Lovelace"}]
}`

const events = `{"id":1,"eventname":"\\core\\event\\course_viewed","component":"core","userid":5,"courseid":2,"contextinstanceid":2,"timecreated":1700000000}
{"id":2,"eventname":"\\mod_wiki\\event\\page_locks_deleted","component":"mod_wiki","userid":5,"courseid":2,"timecreated":1700000000}

{"id":3,"eventname":"\\core\\event\\user_loggedin","component":"core","userid":5,"courseid":0,"timecreated":1700000001}
`

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testOptions(t *testing.T, input string) options {
	return options{
		input:      input,
		fixtures:   writeFile(t, "fixtures.json", []byte(fixtures)),
		appURL:     "https://lms.test/",
		sourceName: "Moodle",
		sourceURL:  "http://moodle.org",
	}
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func decodeStatements(t *testing.T, out string) []domain.Statement {
	t.Helper()
	var stmts []domain.Statement
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var s domain.Statement
		require.NoError(t, json.Unmarshal([]byte(line), &s))
		stmts = append(stmts, s)
	}
	return stmts
}

func TestRun_NDJSON(t *testing.T) {
	var out bytes.Buffer
	opts := testOptions(t, writeFile(t, "events.ndjson", []byte(events)))
	require.NoError(t, run(context.Background(), opts, &out, discard))

	stmts := decodeStatements(t, out.String())
	require.Len(t, stmts, 2, "unsupported events are skipped")
	assert.Equal(t, "https://lms.test/course/view.php?id=2", stmts[0].Object.ID)
	assert.Equal(t, "fr", stmts[0].Context.Language)
	assert.NotEmpty(t, stmts[0].ID)
	assert.NotEqual(t, stmts[0].ID, stmts[1].ID)
}

func TestRun_Zstd(t *testing.T) {
	var compressed bytes.Buffer
	enc, err := zstd.NewWriter(&compressed)
	require.NoError(t, err)
	_, err = enc.Write([]byte(events))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	var out bytes.Buffer
	opts := testOptions(t, writeFile(t, "events.ndjson.zst", compressed.Bytes()))
	require.NoError(t, run(context.Background(), opts, &out, discard))
	assert.Len(t, decodeStatements(t, out.String()), 2)
}

func TestRun_Strict(t *testing.T) {
	opts := testOptions(t, writeFile(t, "events.ndjson", []byte(events)))
	opts.strict = true
	err := run(context.Background(), opts, io.Discard, discard)
	assert.ErrorIs(t, err, domain.ErrUnsupportedEvent)
}

func TestRun_List(t *testing.T) {
	var out bytes.Buffer
	opts := testOptions(t, "-")
	opts.list = true
	require.NoError(t, run(context.Background(), opts, &out, discard))
	assert.Contains(t, out.String(), "mod_choice.answer_deleted\n")
}

func TestRun_RequiresRepository(t *testing.T) {
	err := run(context.Background(), options{input: "-"}, io.Discard, discard)
	assert.Error(t, err)
}
