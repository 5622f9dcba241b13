package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutGetList(t *testing.T) {
	s := openMem(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.Put(Entry{Name: "b", Dir: "/s/b", CreatedAt: now.Add(time.Minute)}))
	require.NoError(t, s.Put(Entry{Name: "a", Dir: "/s/a", CreatedAt: now}))

	got, err := s.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "/s/a", got.Dir)
	assert.True(t, now.Equal(got.CreatedAt))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Name)
	assert.Equal(t, "b", list[1].Name)
}

func TestStore_GetMissing(t *testing.T) {
	s := openMem(t)
	_, err := s.Get("none")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Update(t *testing.T) {
	s := openMem(t)

	require.NoError(t, s.Update("eu4test", func(e *Entry) { e.Runs++ }))
	require.NoError(t, s.Update("eu4test", func(e *Entry) {
		e.Runs++
		e.LastRunID = "01J0000000000000000000000"
	}))

	got, err := s.Get("eu4test")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Runs)
	assert.Equal(t, "eu4test", got.Name)
	assert.Equal(t, "01J0000000000000000000000", got.LastRunID)
}

func TestStore_PersistsOnDisk(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(Config{Dir: dir}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Put(Entry{Name: "x", Runs: 3}))
	require.NoError(t, s.Close())

	s, err = Open(Config{Dir: dir}, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get("x")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Runs)
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open(Config{}, nil)
	assert.Error(t, err)
}
