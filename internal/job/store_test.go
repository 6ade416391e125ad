package job

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	j, err := s.Create(ctx, KindReadme, readmeInputs())
	require.NoError(t, err)
	assert.NotEmpty(t, j.ID)
	assert.Equal(t, StatusPending, j.Status)

	got, err := s.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, KindReadme, got.Kind)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "scribe", got.Inputs["project_name"])
	assert.Nil(t, got.Result)
	assert.Nil(t, got.Error)
	assert.Nil(t, got.StartedAt)
	assert.Nil(t, got.CompletedAt)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestCreateRejectsUnknownKind(t *testing.T) {
	t.Parallel()
	_, err := newTestStore(t).Create(context.Background(), Kind("poem"), nil)
	assert.ErrorIs(t, err, ErrInvalidKind)
}

func TestGetUnknownJob(t *testing.T) {
	t.Parallel()
	_, err := newTestStore(t).Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestLifecycleToCompleted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	j, err := s.Create(ctx, KindReadme, readmeInputs())
	require.NoError(t, err)
	require.NoError(t, s.MarkProcessing(ctx, j.ID))

	got, err := s.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status)
	require.NotNil(t, got.StartedAt)

	require.NoError(t, s.MarkCompleted(ctx, j.ID, "# Scribe"))
	got, err = s.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, "# Scribe", *got.Result)
	assert.Nil(t, got.Error)
	require.NotNil(t, got.CompletedAt)
	assert.False(t, got.CompletedAt.Before(*got.StartedAt))

	var logged int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM job_log WHERE job_id = ? AND status = ?;`, j.ID, StatusCompleted).Scan(&logged))
	assert.Equal(t, 1, logged)
}

func TestTerminalStatesAreFinal(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	j, err := s.Create(ctx, KindReadme, readmeInputs())
	require.NoError(t, err)

	// pending cannot jump to a terminal state
	assert.ErrorIs(t, s.MarkCompleted(ctx, j.ID, "x"), ErrInvalidJobState)

	require.NoError(t, s.MarkProcessing(ctx, j.ID))
	assert.ErrorIs(t, s.MarkProcessing(ctx, j.ID), ErrInvalidJobState)
	require.NoError(t, s.MarkFailed(ctx, j.ID, "boom"))

	assert.ErrorIs(t, s.MarkCompleted(ctx, j.ID, "late"), ErrInvalidJobState)
	assert.ErrorIs(t, s.MarkFailed(ctx, j.ID, "again"), ErrInvalidJobState)

	got, err := s.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, "boom", *got.Error)
	assert.Nil(t, got.Result)
}

func TestTransitionsOnUnknownJob(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	assert.ErrorIs(t, s.MarkProcessing(ctx, "nope"), ErrJobNotFound)
	assert.ErrorIs(t, s.MarkCompleted(ctx, "nope", "x"), ErrJobNotFound)
	assert.ErrorIs(t, s.MarkFailed(ctx, "nope", "x"), ErrJobNotFound)
}

func TestMarkFailedTruncatesLongErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	j, err := s.Create(ctx, KindReadme, readmeInputs())
	require.NoError(t, err)
	require.NoError(t, s.MarkProcessing(ctx, j.ID))
	require.NoError(t, s.MarkFailed(ctx, j.ID, strings.Repeat("e", maxErrorBytes*2)))

	got, err := s.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Len(t, *got.Error, maxErrorBytes)
}

func TestMarkFailedTruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	j, err := s.Create(ctx, KindReadme, readmeInputs())
	require.NoError(t, err)
	require.NoError(t, s.MarkProcessing(ctx, j.ID))
	// "x" shifts every two-byte rune so the limit lands mid-rune.
	require.NoError(t, s.MarkFailed(ctx, j.ID, "x"+strings.Repeat("é", maxErrorBytes)))

	got, err := s.Get(ctx, j.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Error)
	assert.True(t, utf8.ValidString(*got.Error))
	assert.LessOrEqual(t, len(*got.Error), maxErrorBytes)
	assert.Greater(t, len(*got.Error), maxErrorBytes-utf8.UTFMax)
}

func TestTruncateUTF8(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "abc", truncateUTF8("abc", 10))
	assert.Equal(t, "ab", truncateUTF8("abc", 2))
	assert.Equal(t, "a", truncateUTF8("aé", 2))
	assert.Equal(t, "aé", truncateUTF8("aé", 3))
	assert.Equal(t, "", truncateUTF8("日本", 2))
}

func TestNextPendingOldestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		j, err := s.Create(ctx, KindReadme, readmeInputs())
		require.NoError(t, err)
		ids = append(ids, j.ID)
	}
	require.NoError(t, s.MarkProcessing(ctx, ids[0]))

	next, err := s.NextPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, ids[1:], next)

	n, err := s.CountByStatus(ctx, StatusPending)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNextPendingOrdersAcrossWholeSeconds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2026, 1, 1, 12, 0, 5, 0, time.UTC)
	// Created in reverse so insertion order cannot mask a string sort.
	s.now = func() time.Time { return base.Add(500 * time.Millisecond) }
	later, err := s.Create(ctx, KindReadme, readmeInputs())
	require.NoError(t, err)
	s.now = func() time.Time { return base }
	earlier, err := s.Create(ctx, KindReadme, readmeInputs())
	require.NoError(t, err)

	next, err := s.NextPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{earlier.ID, later.ID}, next)

	got, err := s.Get(ctx, earlier.ID)
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.Equal(base))
}

func TestPruneTerminalComparesSubsecondCutoff(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	done := time.Date(2026, 1, 1, 12, 0, 5, 0, time.UTC)
	s.now = func() time.Time { return done }
	j, err := s.Create(ctx, KindReadme, readmeInputs())
	require.NoError(t, err)
	require.NoError(t, s.MarkProcessing(ctx, j.ID))
	require.NoError(t, s.MarkCompleted(ctx, j.ID, "ok"))

	n, err := s.PruneTerminal(ctx, done.Add(500*time.Millisecond))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestPruneTerminalKeepsAuditLog(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return old }
	done, err := s.Create(ctx, KindReadme, readmeInputs())
	require.NoError(t, err)
	require.NoError(t, s.MarkProcessing(ctx, done.ID))
	require.NoError(t, s.MarkCompleted(ctx, done.ID, "ok"))

	stillPending, err := s.Create(ctx, KindReadme, readmeInputs())
	require.NoError(t, err)

	n, err := s.PruneTerminal(ctx, old.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = s.Get(ctx, done.ID)
	assert.ErrorIs(t, err, ErrJobNotFound)
	_, err = s.Get(ctx, stillPending.ID)
	assert.NoError(t, err)

	var logged int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM job_log WHERE job_id = ?;`, done.ID).Scan(&logged))
	assert.Equal(t, 1, logged)
}
