package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "goldmod.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestVisitLedger(t *testing.T) {
	s := openTestStore(t)

	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordVisit("STEAM_0:1:111", "gordon", "10.0.0.7", first))

	p, err := s.Seen("STEAM_0:1:111")
	require.NoError(t, err)
	assert.Equal(t, "gordon", p.Name)
	assert.Equal(t, "10.0.0.7", p.Address)
	assert.Equal(t, int64(1), p.Visits)
	assert.Equal(t, first, p.FirstSeen)
	assert.Equal(t, first, p.LastSeen)

	// A later visit with a new name keeps first-seen, tracks the rest.
	second := first.Add(48 * time.Hour)
	require.NoError(t, s.RecordVisit("STEAM_0:1:111", "freeman", "10.0.0.9", second))

	p, err = s.Seen("STEAM_0:1:111")
	require.NoError(t, err)
	assert.Equal(t, "freeman", p.Name)
	assert.Equal(t, int64(2), p.Visits)
	assert.Equal(t, first, p.FirstSeen)
	assert.Equal(t, second, p.LastSeen)
}

func TestSeenUnknown(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Seen("STEAM_0:0:404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTouchUpdatesLastSeenOnly(t *testing.T) {
	s := openTestStore(t)

	joined := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordVisit("STEAM_0:1:222", "barney", "10.0.0.2", joined))

	left := joined.Add(30 * time.Minute)
	require.NoError(t, s.Touch("STEAM_0:1:222", left))

	p, err := s.Seen("STEAM_0:1:222")
	require.NoError(t, err)
	assert.Equal(t, left, p.LastSeen)
	assert.Equal(t, int64(1), p.Visits)
}

func TestTopVisitors(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordVisit("STEAM_A", "a", "1.1.1.1", base.Add(time.Duration(i)*time.Hour)))
	}
	require.NoError(t, s.RecordVisit("STEAM_B", "b", "2.2.2.2", base))

	top, err := s.TopVisitors(5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "STEAM_A", top[0].AuthID)
	assert.Equal(t, int64(3), top[0].Visits)
	assert.Equal(t, "STEAM_B", top[1].AuthID)

	top, err = s.TopVisitors(1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestPluginValues(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SetValue("votes", "map", "de_dust2"))
	require.NoError(t, s.SetValue("votes", "mode", "classic"))
	require.NoError(t, s.SetValue("other", "map", "cs_office"))

	v, err := s.GetValue("votes", "map")
	require.NoError(t, err)
	assert.Equal(t, "de_dust2", v)

	// Overwrite within a namespace.
	require.NoError(t, s.SetValue("votes", "map", "de_aztec"))
	v, err = s.GetValue("votes", "map")
	require.NoError(t, err)
	assert.Equal(t, "de_aztec", v)

	// Namespaces stay isolated.
	v, err = s.GetValue("other", "map")
	require.NoError(t, err)
	assert.Equal(t, "cs_office", v)

	all, err := s.Values("votes")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"map": "de_aztec", "mode": "classic"}, all)

	require.NoError(t, s.DeleteValue("votes", "map"))
	_, err = s.GetValue("votes", "map")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key stays quiet.
	require.NoError(t, s.DeleteValue("votes", "map"))
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goldmod.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetValue("ns", "k", "v"))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	v, err := s.GetValue("ns", "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
