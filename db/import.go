package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tickr/study-api/internal/model"
	"tickr/study-api/internal/store"
	"tickr/study-api/pkg/security"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const legacyImport = "import_legacy_json"

type legacyUser struct {
	ID       model.FlexID `json:"id"`
	Username string       `json:"username"`
	Password string       `json:"password"`
	Email    string       `json:"email"`
	Verified bool         `json:"verified"`
}

type legacySession struct {
	ID        string       `json:"id"`
	UserID    model.FlexID `json:"userId"`
	Subject   string       `json:"subject"`
	StartTime time.Time    `json:"startTime"`
	EndTime   time.Time    `json:"endTime"`
	Duration  float64      `json:"duration"`
}

type legacyMember struct {
	UserID   model.FlexID `json:"userId"`
	JoinedAt time.Time    `json:"joinedAt"`
}

type legacyGroup struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	CreatedAt   time.Time      `json:"createdAt"`
	OwnerID     model.FlexID   `json:"ownerId"`
	Members     []legacyMember `json:"members"`
	Password    string         `json:"password"`
	MemberLimit int            `json:"memberLimit"`
}

// ImportLegacy loads the flat JSON files of the previous deployment from dir
// into the store. It runs once per database, later calls are no-ops.
func ImportLegacy(ctx context.Context, db *gorm.DB, s *store.Store, argon *security.ArgonHash, dir string) (int, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&model.Migration{}).Where("name = ?", legacyImport).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to check migrations, %w", err)
	}

	if count > 0 {
		zap.L().Debug("Legacy data already imported")
		return 0, nil
	}

	existing, err := store.Load[model.User](ctx, s, store.KindUsers, store.AccountsOwner)
	if err != nil {
		return 0, err
	}

	if len(existing) > 0 {
		return 0, errors.New("refusing to import legacy data into a store that already has accounts")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read legacy directory, %w", err)
	}

	imported := 0

	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return imported, err
		}

		base := strings.TrimSuffix(name, ".json")

		switch {
		case base == string(store.KindUsers):
			err = importUsers(ctx, s, argon, data)
		case strings.HasPrefix(base, string(store.KindStudySessions)+"_"):
			err = importSessions(ctx, s, strings.TrimPrefix(base, string(store.KindStudySessions)+"_"), data)
		case strings.HasPrefix(base, string(store.KindSubjects)+"_"):
			err = importSubjects(ctx, s, strings.TrimPrefix(base, string(store.KindSubjects)+"_"), data)
		case strings.HasPrefix(base, string(store.KindGroups)+"_"):
			err = importGroups(ctx, s, strings.TrimPrefix(base, string(store.KindGroups)+"_"), data)
		default:
			continue
		}
		if err != nil {
			return imported, fmt.Errorf("failed to import %s, %w", name, err)
		}

		imported++
	}

	if err := db.WithContext(ctx).Create(&model.Migration{Name: legacyImport}).Error; err != nil {
		return imported, fmt.Errorf("failed to record migration, %w", err)
	}

	zap.L().Info("Imported legacy data", zap.Int("files", imported), zap.String("dir", dir))
	return imported, nil
}

func replace[T any](ctx context.Context, s *store.Store, kind store.Kind, owner string, items []T) error {
	return store.Update(ctx, s, kind, owner, func([]T) ([]T, error) {
		return items, nil
	})
}

func importUsers(ctx context.Context, s *store.Store, argon *security.ArgonHash, data []byte) error {
	var legacy []legacyUser
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}

	users := make([]model.User, 0, len(legacy))
	for _, u := range legacy {
		hash := u.Password

		// Accounts created before hashing was added store the password as is
		if !security.IsBcrypt(hash) && !strings.HasPrefix(hash, "$argon2id$") {
			var err error
			if hash, err = argon.GenerateFromPassword(u.Password); err != nil {
				return err
			}
		}

		users = append(users, model.User{
			ID:       int64(u.ID),
			Username: u.Username,
			Password: hash,
			Email:    u.Email,
			Verified: u.Verified,
		})
	}

	return replace(ctx, s, store.KindUsers, store.AccountsOwner, users)
}

func importSessions(ctx context.Context, s *store.Store, owner string, data []byte) error {
	var legacy []legacySession
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}

	sessions := make([]model.StudySession, 0, len(legacy))
	for _, l := range legacy {
		sessions = append(sessions, model.StudySession{
			ID:        l.ID,
			UserID:    int64(l.UserID),
			Subject:   l.Subject,
			StartTime: l.StartTime,
			EndTime:   l.EndTime,
			Duration:  int64(l.Duration),
		})
	}

	return replace(ctx, s, store.KindStudySessions, owner, sessions)
}

func importSubjects(ctx context.Context, s *store.Store, owner string, data []byte) error {
	var subjects []string
	if err := json.Unmarshal(data, &subjects); err != nil {
		return err
	}

	return replace(ctx, s, store.KindSubjects, owner, subjects)
}

func importGroups(ctx context.Context, s *store.Store, owner string, data []byte) error {
	var legacy []legacyGroup
	if err := json.Unmarshal(data, &legacy); err != nil {
		return err
	}

	groups := make([]model.Group, 0, len(legacy))
	for _, l := range legacy {
		members := make([]model.GroupMember, 0, len(l.Members))
		for _, m := range l.Members {
			members = append(members, model.GroupMember{UserID: int64(m.UserID), JoinedAt: m.JoinedAt})
		}

		groups = append(groups, model.Group{
			ID:          l.ID,
			Name:        l.Name,
			Description: l.Description,
			CreatedAt:   l.CreatedAt,
			OwnerID:     int64(l.OwnerID),
			Members:     members,
			Password:    l.Password,
			MemberLimit: l.MemberLimit,
		})
	}

	return replace(ctx, s, store.KindGroups, owner, groups)
}
