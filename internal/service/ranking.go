package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"tickr/study-api/internal/model"
	"tickr/study-api/internal/store"
)

const (
	RankingWindow = 24 * time.Hour
	RankingSize   = 10
)

type Ranking struct {
	Store  *store.Store
	Groups *Groups
	Now    func() time.Time
}

func displayName(names map[int64]string, id int64) string {
	if n, ok := names[id]; ok {
		return n
	}

	return fmt.Sprintf("Unknown User (%d)", id)
}

// totalOf sums every session a user ever recorded
func (r *Ranking) totalOf(ctx context.Context, userID int64) (int64, error) {
	sessions, err := store.Load[model.StudySession](ctx, r.Store, store.KindStudySessions, owner(userID))
	if err != nil {
		return 0, err
	}

	var total int64
	for _, s := range sessions {
		total += s.Duration
	}

	return total, nil
}

// Individual ranks users by the time studied in sessions started within the
// last 24 hours. Equal totals are ordered by user id.
func (r *Ranking) Individual(ctx context.Context) ([]model.UserRanking, error) {
	since := r.Now().Add(-RankingWindow)
	totals := make(map[int64]int64)

	err := store.Scan(ctx, r.Store, store.KindStudySessions, func(_ string, sessions []model.StudySession) bool {
		for _, s := range sessions {
			if !s.StartTime.Before(since) {
				totals[s.UserID] += s.Duration
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	names, err := usernames(ctx, r.Store)
	if err != nil {
		return nil, err
	}

	out := make([]model.UserRanking, 0, len(totals))
	for id, total := range totals {
		out = append(out, model.UserRanking{
			UserID:        id,
			Username:      displayName(names, id),
			TotalDuration: total,
		})
	}

	slices.SortFunc(out, func(a, b model.UserRanking) int {
		return cmp.Or(
			cmp.Compare(b.TotalDuration, a.TotalDuration),
			cmp.Compare(a.UserID, b.UserID),
		)
	})

	if len(out) > RankingSize {
		out = out[:RankingSize]
	}

	return out, nil
}

// Group ranks the members of one group by all-time study time. Equal totals
// keep membership order.
func (r *Ranking) Group(ctx context.Context, groupID string) ([]model.MemberRanking, error) {
	if groupID == "" {
		return nil, badRequest("Group ID is required")
	}

	group, _, err := r.Groups.Find(ctx, groupID)
	if err != nil {
		return nil, err
	}

	names, err := usernames(ctx, r.Store)
	if err != nil {
		return nil, err
	}

	out := make([]model.MemberRanking, 0, len(group.Members))
	for _, m := range group.Members {
		total, err := r.totalOf(ctx, m.UserID)
		if err != nil {
			return nil, err
		}

		out = append(out, model.MemberRanking{
			UserID:             m.UserID,
			Username:           displayName(names, m.UserID),
			TotalStudyDuration: total,
		})
	}

	slices.SortStableFunc(out, func(a, b model.MemberRanking) int {
		return cmp.Compare(b.TotalStudyDuration, a.TotalStudyDuration)
	})

	return out, nil
}

// Leaderboard ranks every group by the all-time study time of its members.
// Equal totals are ordered by creation time, then id.
func (r *Ranking) Leaderboard(ctx context.Context) ([]model.GroupRanking, error) {
	groups, err := r.Groups.all(ctx)
	if err != nil {
		return nil, err
	}

	totals := make(map[int64]int64)
	out := make([]model.GroupRanking, 0, len(groups))
	created := make(map[string]time.Time, len(groups))

	for _, g := range groups {
		var sum int64
		for _, m := range g.Members {
			total, ok := totals[m.UserID]
			if !ok {
				if total, err = r.totalOf(ctx, m.UserID); err != nil {
					return nil, err
				}
				totals[m.UserID] = total
			}
			sum += total
		}

		created[g.ID] = g.CreatedAt
		out = append(out, model.GroupRanking{
			GroupID:       g.ID,
			GroupName:     g.Name,
			TotalDuration: sum,
			MemberCount:   len(g.Members),
		})
	}

	slices.SortFunc(out, func(a, b model.GroupRanking) int {
		return cmp.Or(
			cmp.Compare(b.TotalDuration, a.TotalDuration),
			created[a.GroupID].Compare(created[b.GroupID]),
			cmp.Compare(a.GroupID, b.GroupID),
		)
	})

	return out, nil
}
