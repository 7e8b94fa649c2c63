package service

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"tickr/study-api/internal/model"
	"tickr/study-api/internal/store"

	"github.com/google/uuid"
)

// maxClockSkew bounds how far in the future a session may end
const maxClockSkew = time.Minute

type Study struct {
	Store *store.Store
	Now   func() time.Time
}

func owner(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (s *Study) Sessions(ctx context.Context, userID int64) ([]model.StudySession, error) {
	if userID == 0 {
		return nil, badRequest("User ID is required")
	}

	return store.Load[model.StudySession](ctx, s.Store, store.KindStudySessions, owner(userID))
}

// Record appends a finished session. The stored duration is always derived
// from the timestamps.
func (s *Study) Record(ctx context.Context, userID int64, subject string, start, end time.Time) (*model.StudySession, error) {
	subject = strings.TrimSpace(subject)
	if userID == 0 || subject == "" || start.IsZero() || end.IsZero() {
		return nil, badRequest("User ID, subject, start time and end time are required")
	}

	if end.After(s.Now().Add(maxClockSkew)) {
		return nil, badRequest("The end time lies in the future")
	}

	duration := int64(end.Sub(start) / time.Second)
	if duration <= 0 {
		return nil, badRequest("The session must end after it starts")
	}

	if err := userExists(ctx, s.Store, userID); err != nil {
		return nil, err
	}

	session := model.StudySession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Subject:   subject,
		StartTime: start,
		EndTime:   end,
		Duration:  duration,
	}

	err := store.Update(ctx, s.Store, store.KindStudySessions, owner(userID), func(sessions []model.StudySession) ([]model.StudySession, error) {
		return append(sessions, session), nil
	})
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (s *Study) Subjects(ctx context.Context, userID int64) ([]string, error) {
	if userID == 0 {
		return nil, badRequest("User ID is required")
	}

	return store.Load[string](ctx, s.Store, store.KindSubjects, owner(userID))
}

func (s *Study) AddSubject(ctx context.Context, userID int64, subject string) ([]string, error) {
	subject = strings.TrimSpace(subject)
	if userID == 0 || subject == "" {
		return nil, badRequest("User ID and subject are required")
	}

	if err := userExists(ctx, s.Store, userID); err != nil {
		return nil, err
	}

	var out []string

	err := store.Update(ctx, s.Store, store.KindSubjects, owner(userID), func(subjects []string) ([]string, error) {
		if slices.Contains(subjects, subject) {
			return nil, conflict("This subject already exists")
		}

		out = append(subjects, subject)
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Study) DeleteSubject(ctx context.Context, userID int64, subject string) ([]string, error) {
	subject = strings.TrimSpace(subject)
	if userID == 0 || subject == "" {
		return nil, badRequest("User ID and subject are required")
	}

	var out []string

	err := store.Update(ctx, s.Store, store.KindSubjects, owner(userID), func(subjects []string) ([]string, error) {
		i := slices.Index(subjects, subject)
		if i == -1 {
			return nil, notFound("Subject not found")
		}

		out = slices.Delete(subjects, i, i+1)
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	if out == nil {
		out = []string{}
	}

	return out, nil
}
