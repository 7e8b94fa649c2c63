package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tickr/study-api/internal/model"
	"tickr/study-api/internal/store"
	"tickr/study-api/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func writeLegacy(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestImportLegacy(t *testing.T) {
	ctx := context.Background()

	db, err := New(Options{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)

	s := store.New(store.NewGormBackend(db))
	t.Cleanup(func() { s.Close() })

	legacy := t.TempDir()
	writeLegacy(t, legacy, "users.json", `[
  {"id": 1, "username": "alice", "password": "Secret1!", "email": "alice@example.com", "verified": true, "verificationToken": "abc"},
  {"id": 2, "username": "bob", "password": "Secret1!", "email": "bob@example.com", "verified": false}
]`)
	writeLegacy(t, legacy, "study_sessions_1.json", `[
  {"id": "s1", "userId": "1", "subject": "math", "startTime": "2025-05-01T10:00:00.000Z", "endTime": "2025-05-01T11:00:00.000Z", "duration": 3600}
]`)
	writeLegacy(t, legacy, "subjects_1.json", `["math", "physics"]`)
	writeLegacy(t, legacy, "groups_1.json", `[
  {"id": "g1", "name": "G", "description": "d", "createdAt": "2025-05-01T09:00:00.000Z", "ownerId": "1",
   "members": [{"userId": "1", "joinedAt": "2025-05-01T09:00:00.000Z"}, {"userId": "2", "joinedAt": "2025-05-02T09:00:00.000Z"}]}
]`)
	writeLegacy(t, legacy, "package.json", `{"name": "ignored"}`)

	n, err := ImportLegacy(ctx, db, s, security.NewFast(), legacy)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	users, err := store.Load[model.User](ctx, s, store.KindUsers, store.AccountsOwner)
	require.NoError(t, err)
	require.Len(t, users, 2)

	ok, err := security.NewFast().VerifyPasswd("Secret1!", users[0].Password)
	require.NoError(t, err)
	assert.True(t, ok)

	sessions, err := store.Load[model.StudySession](ctx, s, store.KindStudySessions, "1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(1), sessions[0].UserID)
	assert.Equal(t, int64(3600), sessions[0].Duration)

	groups, err := store.Load[model.Group](ctx, s, store.KindGroups, "1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, int64(1), groups[0].OwnerID)
	assert.True(t, groups[0].HasMember(2))

	// second run is a no-op
	n, err = ImportLegacy(ctx, db, s, security.NewFast(), legacy)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(Options{Driver: "mysql"})
	assert.Error(t, err)
}

func TestNewRequiresMountedFile(t *testing.T) {
	_, err := New(Options{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "missing.db"),
		MustExist:  true,
	})
	assert.ErrorContains(t, err, "not mounted")
}
