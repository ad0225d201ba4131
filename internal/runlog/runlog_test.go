package runlog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntry(id string, status Status) Entry {
	return Entry{
		RunID:      "run-" + id,
		Timestamp:  time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		Identifier: id,
		Slug:       "foo",
		Status:     status,
		Duration:   3 * time.Second,
	}
}

func TestAppendAndRead(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "runs.jsonl"))

	require.NoError(t, log.Append(testEntry("day_1_foo", StatusSuccess)))
	require.NoError(t, log.Append(testEntry("day_2_foo", StatusFailed)))

	entries, err := log.Read()
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "day_1_foo", entries[0].Identifier)
	assert.Equal(t, StatusSuccess, entries[0].Status)
	assert.Equal(t, "day_2_foo", entries[1].Identifier)
	assert.Equal(t, StatusFailed, entries[1].Status)
	assert.Equal(t, 3*time.Second, entries[0].Duration)
}

func TestAppendCreatesParentDir(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "nested", "deeper", "runs.jsonl"))

	require.NoError(t, log.Append(testEntry("day_1_foo", StatusSuccess)))
	assert.FileExists(t, log.Path())
}

func TestAppendIsAppendOnly(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "runs.jsonl"))

	require.NoError(t, log.Append(testEntry("day_1_foo", StatusSuccess)))
	first, err := os.ReadFile(log.Path())
	require.NoError(t, err)

	require.NoError(t, log.Append(testEntry("day_2_foo", StatusFailed)))
	second, err := os.ReadFile(log.Path())
	require.NoError(t, err)

	// The earlier content is a strict prefix of the later content.
	assert.Equal(t, string(first), string(second[:len(first)]))
}

func TestReadMissingFile(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "absent.jsonl"))

	entries, err := log.Read()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReadSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	log := New(path)

	require.NoError(t, log.Append(testEntry("day_1_foo", StatusSuccess)))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("this is not json\n\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, log.Append(testEntry("day_2_foo", StatusFailed)))

	entries, err := log.Read()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "day_1_foo", entries[0].Identifier)
	assert.Equal(t, "day_2_foo", entries[1].Identifier)
}

func TestTail(t *testing.T) {
	log := New(filepath.Join(t.TempDir(), "runs.jsonl"))
	for _, id := range []string{"day_1_a", "day_2_a", "day_3_a"} {
		require.NoError(t, log.Append(testEntry(id, StatusSuccess)))
	}

	tail, err := log.Tail(2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "day_2_a", tail[0].Identifier)
	assert.Equal(t, "day_3_a", tail[1].Identifier)

	all, err := log.Tail(0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	all, err = log.Tail(10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAppendUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	// A file where the parent directory should be makes MkdirAll fail.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	log := New(filepath.Join(blocker, "runs.jsonl"))
	err := log.Append(testEntry("day_1_foo", StatusFailed))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrite))
}
