package store

import (
	"context"
	"path/filepath"
	"testing"

	"tickr/study-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newGormStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Shard{}))

	s := New(NewGormBackend(db))
	t.Cleanup(func() { s.Close() })

	return s
}

func TestGormBackendUpsertAndList(t *testing.T) {
	s := newGormStore(t)
	ctx := context.Background()

	for range 2 {
		require.NoError(t, Update(ctx, s, KindSubjects, "5", func(items []string) ([]string, error) {
			return append(items, "chem"), nil
		}))
	}

	items, err := Load[string](ctx, s, KindSubjects, "5")
	require.NoError(t, err)
	assert.Equal(t, []string{"chem", "chem"}, items)

	require.NoError(t, Update(ctx, s, KindSubjects, "6", func(items []string) ([]string, error) {
		return append(items, "bio"), nil
	}))

	owners, err := s.Backend().List(ctx, KindSubjects)
	require.NoError(t, err)
	assert.Equal(t, []string{"5", "6"}, owners)
}

func TestGormBackendDeleteOnEmpty(t *testing.T) {
	s := newGormStore(t)
	ctx := context.Background()

	require.NoError(t, Update(ctx, s, KindGroups, "1", func(items []string) ([]string, error) {
		return append(items, "g"), nil
	}))
	require.NoError(t, Update(ctx, s, KindGroups, "1", func([]string) ([]string, error) {
		return nil, nil
	}))

	_, err := s.Backend().Get(ctx, KindGroups, "1")
	assert.ErrorIs(t, err, ErrNotFound)
}
