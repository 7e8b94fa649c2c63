package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	b, err := NewLocalBackend(dir)
	require.NoError(t, err)

	return New(b), dir
}

func TestLoadMissingShardIsEmpty(t *testing.T) {
	s, _ := newLocalStore(t)

	items, err := Load[string](context.Background(), s, KindSubjects, "1")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestUpdateWritesOwnerKeyedFile(t *testing.T) {
	s, dir := newLocalStore(t)
	ctx := context.Background()

	err := Update(ctx, s, KindSubjects, "7", func(items []string) ([]string, error) {
		return append(items, "math"), nil
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "subjects_7.json"))

	items, err := Load[string](ctx, s, KindSubjects, "7")
	require.NoError(t, err)
	assert.Equal(t, []string{"math"}, items)
}

func TestUpdateErrorWritesNothing(t *testing.T) {
	s, dir := newLocalStore(t)
	ctx := context.Background()

	require.NoError(t, Update(ctx, s, KindSubjects, "1", func(items []string) ([]string, error) {
		return append(items, "math"), nil
	}))

	before, err := os.ReadFile(filepath.Join(dir, "subjects_1.json"))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = Update(ctx, s, KindSubjects, "1", func(items []string) ([]string, error) {
		return append(items, "physics"), boom
	})
	assert.ErrorIs(t, err, boom)

	after, err := os.ReadFile(filepath.Join(dir, "subjects_1.json"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateToEmptyRemovesShard(t *testing.T) {
	s, dir := newLocalStore(t)
	ctx := context.Background()

	require.NoError(t, Update(ctx, s, KindGroups, "3", func(items []string) ([]string, error) {
		return append(items, "g1"), nil
	}))
	require.NoError(t, Update(ctx, s, KindGroups, "3", func(items []string) ([]string, error) {
		return items[:0], nil
	}))

	_, err := os.Stat(filepath.Join(dir, "groups_3.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestUsersShardUsesSharedFile(t *testing.T) {
	s, dir := newLocalStore(t)
	ctx := context.Background()

	require.NoError(t, Update(ctx, s, KindUsers, AccountsOwner, func(items []int) ([]int, error) {
		return append(items, 1), nil
	}))
	assert.FileExists(t, filepath.Join(dir, "users.json"))

	owners, err := s.Backend().List(ctx, KindUsers)
	require.NoError(t, err)
	assert.Equal(t, []string{AccountsOwner}, owners)
}

func TestConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	s, _ := newLocalStore(t)
	ctx := context.Background()

	const n = 50

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := Update(ctx, s, KindStudySessions, "1", func(items []int) ([]int, error) {
				return append(items, i), nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	items, err := Load[int](ctx, s, KindStudySessions, "1")
	require.NoError(t, err)
	assert.Len(t, items, n)
}

func TestScanVisitsEveryOwner(t *testing.T) {
	s, dir := newLocalStore(t)
	ctx := context.Background()

	for _, owner := range []string{"1", "2", "10"} {
		require.NoError(t, Update(ctx, s, KindGroups, owner, func(items []string) ([]string, error) {
			return append(items, "g"+owner), nil
		}))
	}

	// Unrelated files in the data directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, Update(ctx, s, KindSubjects, "1", func(items []string) ([]string, error) {
		return append(items, "math"), nil
	}))

	seen := map[string][]string{}
	err := Scan(ctx, s, KindGroups, func(owner string, items []string) bool {
		seen[owner] = items
		return true
	})
	require.NoError(t, err)

	assert.Equal(t, map[string][]string{
		"1":  {"g1"},
		"2":  {"g2"},
		"10": {"g10"},
	}, seen)
}

func TestScanStopsEarly(t *testing.T) {
	s, _ := newLocalStore(t)
	ctx := context.Background()

	for _, owner := range []string{"1", "2", "3"} {
		require.NoError(t, Update(ctx, s, KindGroups, owner, func(items []string) ([]string, error) {
			return append(items, owner), nil
		}))
	}

	visits := 0
	require.NoError(t, Scan(ctx, s, KindGroups, func(string, []string) bool {
		visits++
		return false
	}))
	assert.Equal(t, 1, visits)
}

func TestDropRemovesShard(t *testing.T) {
	s, _ := newLocalStore(t)
	ctx := context.Background()

	require.NoError(t, Update(ctx, s, KindSubjects, "4", func(items []string) ([]string, error) {
		return append(items, "art"), nil
	}))
	require.NoError(t, s.Drop(ctx, KindSubjects, "4"))
	require.NoError(t, s.Drop(ctx, KindSubjects, "4"))

	items, err := Load[string](ctx, s, KindSubjects, "4")
	require.NoError(t, err)
	assert.Empty(t, items)
}
