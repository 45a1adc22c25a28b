package prefs

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecent(t *testing.T) {
	t.Parallel()

	s := &Store{Dir: filepath.Join(t.TempDir(), "cfg")}
	list, err := s.Recent()
	require.NoError(t, err)
	require.Empty(t, list)

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.nmoney"), filepath.Join(dir, "b.nmoney")
	require.NoError(t, s.Touch(a, "A", base))
	require.NoError(t, s.Touch(b, "B", base.Add(time.Hour)))
	require.NoError(t, s.Touch(a, "A", base.Add(2*time.Hour)))

	list, err = s.Recent()
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, a, list[0].Path)
	require.True(t, base.Add(2*time.Hour).Equal(list[0].LastOpened))
	require.Equal(t, b, list[1].Path)

	require.NoError(t, s.Forget(a))
	list, err = s.Recent()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "B", list[0].Name)
}

func TestRecentCap(t *testing.T) {
	t.Parallel()

	s := &Store{Dir: t.TempDir()}
	dir := t.TempDir()
	for i := 0; i < MaxRecent+3; i++ {
		require.NoError(t, s.Touch(filepath.Join(dir, fmt.Sprintf("%d.nmoney", i)), "", time.Unix(int64(i), 0)))
	}
	list, err := s.Recent()
	require.NoError(t, err)
	require.Len(t, list, MaxRecent)
	require.Equal(t, filepath.Join(dir, fmt.Sprintf("%d.nmoney", MaxRecent+2)), list[0].Path)
}
