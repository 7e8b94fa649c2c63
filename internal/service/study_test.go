package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRecomputesDuration(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.verifiedUser(t, "alice")

	end := e.clock.Now()
	s, err := e.study.Record(ctx, a.ID, " math ", end.Add(-90*time.Second-500*time.Millisecond), end)
	require.NoError(t, err)
	assert.Equal(t, int64(90), s.Duration)
	assert.Equal(t, "math", s.Subject)
	assert.NotEmpty(t, s.ID)

	sessions, err := e.study.Sessions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, s.ID, sessions[0].ID)
}

func TestRecordRejectsInvalidSessions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.verifiedUser(t, "alice")
	now := e.clock.Now()

	_, err := e.study.Record(ctx, a.ID, "", now.Add(-time.Minute), now)
	assertStatus(t, err, http.StatusBadRequest)

	_, err = e.study.Record(ctx, a.ID, "math", now, now)
	assertStatus(t, err, http.StatusBadRequest)

	_, err = e.study.Record(ctx, a.ID, "math", now, now.Add(-time.Minute))
	assertStatus(t, err, http.StatusBadRequest)

	_, err = e.study.Record(ctx, a.ID, "math", now, now.Add(time.Hour))
	assertStatus(t, err, http.StatusBadRequest)

	_, err = e.study.Record(ctx, 99, "math", now.Add(-time.Minute), now)
	assertStatus(t, err, http.StatusNotFound)

	sessions, err := e.study.Sessions(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionsOfUnknownUserAreEmpty(t *testing.T) {
	e := newEnv(t)

	sessions, err := e.study.Sessions(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, sessions)

	_, err = e.study.Sessions(context.Background(), 0)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestSubjects(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.verifiedUser(t, "alice")

	subjects, err := e.study.AddSubject(ctx, a.ID, "math")
	require.NoError(t, err)
	assert.Equal(t, []string{"math"}, subjects)

	_, err = e.study.AddSubject(ctx, a.ID, "math")
	assertStatus(t, err, http.StatusConflict)

	_, err = e.study.AddSubject(ctx, a.ID, "physics")
	require.NoError(t, err)

	_, err = e.study.DeleteSubject(ctx, a.ID, "history")
	assertStatus(t, err, http.StatusNotFound)

	subjects, err = e.study.DeleteSubject(ctx, a.ID, "math")
	require.NoError(t, err)
	assert.Equal(t, []string{"physics"}, subjects)

	subjects, err = e.study.DeleteSubject(ctx, a.ID, "physics")
	require.NoError(t, err)
	assert.Empty(t, subjects)

	subjects, err = e.study.Subjects(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, subjects)
}

func TestSubjectsAreTrimmed(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.verifiedUser(t, "alice")

	subjects, err := e.study.AddSubject(ctx, a.ID, " Math ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Math"}, subjects)

	_, err = e.study.AddSubject(ctx, a.ID, "Math")
	assertStatus(t, err, http.StatusConflict)

	subjects, err = e.study.DeleteSubject(ctx, a.ID, " Math")
	require.NoError(t, err)
	assert.Empty(t, subjects)

	_, err = e.study.DeleteSubject(ctx, a.ID, "   ")
	assertStatus(t, err, http.StatusBadRequest)
}

func TestDeletedSubjectKeepsSessions(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	a := e.verifiedUser(t, "alice")

	_, err := e.study.AddSubject(ctx, a.ID, "math")
	require.NoError(t, err)
	e.session(t, a.ID, "math", time.Minute)

	_, err = e.study.DeleteSubject(ctx, a.ID, "math")
	require.NoError(t, err)

	sessions, err := e.study.Sessions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "math", sessions[0].Subject)
}
