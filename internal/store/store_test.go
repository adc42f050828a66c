package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "formcheck.db")

	s, err := New(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file should exist after creating store")
	assert.Equal(t, dbPath, s.Path())
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"settings", "sessions", "session_joints"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q should exist after migrations", table)
	}
}

func TestNewStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Settings().Set("k", "v"))
	require.NoError(t, s.Close())

	s, err = New(dbPath)
	require.NoError(t, err, "migrations are idempotent")
	defer s.Close()

	got, err := s.Settings().Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestSettings(t *testing.T) {
	repo := newTestStore(t).Settings()

	_, err := repo.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set("theme", "dark"))
	require.NoError(t, repo.Set("theme", "light"))
	got, err := repo.Get("theme")
	require.NoError(t, err)
	assert.Equal(t, "light", got)

	type selection struct {
		Exercise string `json:"exercise"`
	}
	require.NoError(t, repo.SetJSON(SettingSelection, selection{Exercise: "squat"}))
	var sel selection
	require.NoError(t, repo.GetJSON(SettingSelection, &sel))
	assert.Equal(t, "squat", sel.Exercise)

	require.NoError(t, repo.Set("broken", "{"))
	assert.Error(t, repo.GetJSON("broken", &sel))

	require.NoError(t, repo.Delete("theme"))
	assert.ErrorIs(t, repo.Delete("theme"), ErrNotFound)
}

func TestSessions(t *testing.T) {
	repo := newTestStore(t).Sessions()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first := &Session{
		Exercise:        "squat",
		StartedAt:       start,
		EndedAt:         start.Add(2 * time.Minute),
		Frames:          3000,
		EvaluatedFrames: 2500,
		CorrectFrames:   2000,
		MeanProgress:    82.5,
		Joints: []JointStats{
			{Joint: "leftKnee", Good: 2000, Warning: 300, Danger: 100, DeadZone: 100, MeanAngle: 120.5},
			{Joint: "rightKnee", Good: 1900, Warning: 400, Danger: 200},
		},
	}
	require.NoError(t, repo.Create(first))
	assert.NotEmpty(t, first.ID, "ID is generated")

	second := &Session{
		ID:        "manual-1",
		Manual:    true,
		StartedAt: start.Add(time.Hour),
		EndedAt:   start.Add(time.Hour + time.Minute),
	}
	require.NoError(t, repo.Create(second))

	t.Run("get with joints", func(t *testing.T) {
		got, err := repo.GetByID(first.ID)
		require.NoError(t, err)
		assert.Equal(t, "squat", got.Exercise)
		assert.False(t, got.Manual)
		assert.True(t, got.StartedAt.Equal(start))
		assert.Equal(t, 2*time.Minute, got.Duration())
		assert.InDelta(t, 0.8, got.CorrectRatio(), 1e-9)
		require.Len(t, got.Joints, 2)
		assert.Equal(t, first.Joints[0], got.Joints[0])
	})

	t.Run("list newest first", func(t *testing.T) {
		all, err := repo.List(0)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, "manual-1", all[0].ID)
		assert.True(t, all[0].Manual)

		limited, err := repo.List(1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := repo.GetByID("nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, repo.Delete(first.ID))
		assert.ErrorIs(t, repo.Delete(first.ID), ErrNotFound)

		var n int
		require.NoError(t, repo.db.QueryRow(`SELECT COUNT(*) FROM session_joints`).Scan(&n))
		assert.Zero(t, n)
	})
}

func TestSession_CorrectRatioEmpty(t *testing.T) {
	assert.Zero(t, (&Session{}).CorrectRatio())
}
