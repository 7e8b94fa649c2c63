package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"tickr/study-api/internal/model"
	"tickr/study-api/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Groups struct {
	Store *store.Store
	Now   func() time.Time
}

type NewGroup struct {
	Name        string
	Description string
	OwnerID     int64
	Password    string
	MemberLimit int
}

func (g *Groups) all(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group

	err := store.Scan(ctx, g.Store, store.KindGroups, func(_ string, items []model.Group) bool {
		groups = append(groups, items...)
		return true
	})
	if err != nil {
		return nil, err
	}

	return groups, nil
}

// List returns every group, or only those userID is a member of
func (g *Groups) List(ctx context.Context, userID *int64) ([]model.Group, error) {
	groups, err := g.all(ctx)
	if err != nil {
		return nil, err
	}

	if userID != nil {
		groups = slices.DeleteFunc(groups, func(gr model.Group) bool {
			return !gr.HasMember(*userID)
		})
	}

	if groups == nil {
		groups = []model.Group{}
	}

	return groups, nil
}

// Find locates a group and the owner key of the shard holding it
func (g *Groups) Find(ctx context.Context, groupID string) (*model.Group, string, error) {
	var (
		found *model.Group
		key   string
	)

	err := store.Scan(ctx, g.Store, store.KindGroups, func(owner string, items []model.Group) bool {
		i := slices.IndexFunc(items, func(gr model.Group) bool { return gr.ID == groupID })
		if i == -1 {
			return true
		}

		found, key = &items[i], owner
		return false
	})
	if err != nil {
		return nil, "", err
	}

	if found == nil {
		return nil, "", notFound("Group not found")
	}

	return found, key, nil
}

func (g *Groups) membership(ctx context.Context, userID int64) (*model.Group, error) {
	groups, err := g.all(ctx)
	if err != nil {
		return nil, err
	}

	i := slices.IndexFunc(groups, func(gr model.Group) bool { return gr.HasMember(userID) })
	if i == -1 {
		return nil, nil
	}

	return &groups[i], nil
}

func (g *Groups) Create(ctx context.Context, n NewGroup) (*model.Group, error) {
	n.Name = strings.TrimSpace(n.Name)
	n.Description = strings.TrimSpace(n.Description)

	if n.Name == "" || n.Description == "" || n.OwnerID == 0 {
		return nil, badRequest("Name, description and owner ID are required")
	}

	if n.MemberLimit < 0 {
		return nil, badRequest("The member limit cannot be negative")
	}

	if err := userExists(ctx, g.Store, n.OwnerID); err != nil {
		return nil, err
	}

	current, err := g.membership(ctx, n.OwnerID)
	if err != nil {
		return nil, err
	}

	if current != nil {
		return nil, conflict("You are already a member of a group")
	}

	now := g.Now().UTC()
	group := model.Group{
		ID:          uuid.NewString(),
		Name:        n.Name,
		Description: n.Description,
		CreatedAt:   now,
		OwnerID:     n.OwnerID,
		Members:     []model.GroupMember{{UserID: n.OwnerID, JoinedAt: now}},
		Password:    n.Password,
		MemberLimit: n.MemberLimit,
	}

	err = store.Update(ctx, g.Store, store.KindGroups, owner(n.OwnerID), func(groups []model.Group) ([]model.Group, error) {
		return append(groups, group), nil
	})
	if err != nil {
		return nil, err
	}

	return &group, nil
}

// modify rewrites one group inside its owner's shard. The group is looked
// up again under the shard lock.
func (g *Groups) modify(ctx context.Context, key, groupID string, fn func(gr *model.Group) error) (*model.Group, error) {
	var out model.Group

	err := store.Update(ctx, g.Store, store.KindGroups, key, func(groups []model.Group) ([]model.Group, error) {
		i := slices.IndexFunc(groups, func(gr model.Group) bool { return gr.ID == groupID })
		if i == -1 {
			return nil, inconsistent("Consistency error: group vanished after being found")
		}

		if err := fn(&groups[i]); err != nil {
			return nil, err
		}

		out = groups[i]
		return groups, nil
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}

func checkOwnerKey(gr *model.Group, key string) error {
	if owner(gr.OwnerID) != key {
		zap.L().Error("Group stored outside its owner's shard",
			zap.String("groupID", gr.ID),
			zap.Int64("ownerID", gr.OwnerID),
			zap.String("shard", key),
		)
		return inconsistent("Ownership consistency error")
	}

	return nil
}

func (g *Groups) Join(ctx context.Context, groupID string, userID int64, password string) (*model.Group, error) {
	if groupID == "" || userID == 0 {
		return nil, badRequest("Group ID and user ID are required")
	}

	found, key, err := g.Find(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if err := checkOwnerKey(found, key); err != nil {
		return nil, err
	}

	if found.Password != "" && found.Password != password {
		return nil, unauthorized("The group password is incorrect")
	}

	if found.HasMember(userID) {
		return nil, conflict("User is already a member of this group")
	}

	if found.Full() {
		return nil, forbidden("This group has reached its member limit")
	}

	if err := userExists(ctx, g.Store, userID); err != nil {
		return nil, err
	}

	current, err := g.membership(ctx, userID)
	if err != nil {
		return nil, err
	}

	if current != nil {
		return nil, conflict("You are already a member of another group")
	}

	return g.modify(ctx, key, groupID, func(gr *model.Group) error {
		// state may have moved since the scan
		if gr.HasMember(userID) {
			return conflict("User is already a member of this group")
		}
		if gr.Full() {
			return forbidden("This group has reached its member limit")
		}

		gr.Members = append(gr.Members, model.GroupMember{UserID: userID, JoinedAt: g.Now().UTC()})
		return nil
	})
}

func (g *Groups) Leave(ctx context.Context, groupID string, userID int64) (*model.Group, error) {
	if groupID == "" || userID == 0 {
		return nil, badRequest("Group ID and user ID are required")
	}

	found, key, err := g.Find(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if !found.HasMember(userID) {
		return nil, notFound("User is not a member of this group")
	}

	if found.OwnerID == userID {
		return nil, forbidden("The owner cannot leave the group, delete it instead")
	}

	return g.modify(ctx, key, groupID, func(gr *model.Group) error {
		i := slices.IndexFunc(gr.Members, func(m model.GroupMember) bool { return m.UserID == userID })
		if i == -1 {
			return notFound("User is not a member of this group")
		}

		gr.Members = slices.Delete(gr.Members, i, i+1)
		return nil
	})
}

func (g *Groups) Delete(ctx context.Context, groupID string, userID int64, password string) error {
	if groupID == "" || userID == 0 {
		return badRequest("Group ID and user ID are required")
	}

	found, key, err := g.Find(ctx, groupID)
	if err != nil {
		return err
	}

	if found.OwnerID != userID {
		return forbidden("Only the group owner can delete the group")
	}

	if key != owner(userID) {
		return checkOwnerKey(found, key)
	}

	if found.Password != "" && found.Password != password {
		return unauthorized("The group password is incorrect")
	}

	return store.Update(ctx, g.Store, store.KindGroups, key, func(groups []model.Group) ([]model.Group, error) {
		i := slices.IndexFunc(groups, func(gr model.Group) bool { return gr.ID == groupID })
		if i == -1 {
			return nil, inconsistent("Consistency error: group to delete not found in owner shard")
		}

		return slices.Delete(groups, i, i+1), nil
	})
}

// RemoveUser drops every group userID owns and removes them from groups
// owned by others
func (g *Groups) RemoveUser(ctx context.Context, userID int64) error {
	if err := g.Store.Drop(ctx, store.KindGroups, owner(userID)); err != nil {
		return err
	}

	type placed struct{ key, groupID string }

	var joined []placed

	err := store.Scan(ctx, g.Store, store.KindGroups, func(key string, items []model.Group) bool {
		for _, gr := range items {
			if gr.HasMember(userID) {
				joined = append(joined, placed{key, gr.ID})
			}
		}
		return true
	})
	if err != nil {
		return err
	}

	// The shard the group was found in, not always the owner's
	for _, p := range joined {
		_, err := g.modify(ctx, p.key, p.groupID, func(gr *model.Group) error {
			gr.Members = slices.DeleteFunc(gr.Members, func(m model.GroupMember) bool {
				return m.UserID == userID
			})
			return nil
		})
		if err != nil {
			zap.L().Error("Failed to remove deleted user from group",
				zap.Error(err),
				zap.String("groupID", p.groupID),
				zap.String("shard", p.key),
				zap.Int64("userID", userID),
			)
			continue
		}

		zap.L().Debug("Removed deleted user from group", zap.String("groupID", p.groupID), zap.Int64("userID", userID))
	}

	return nil
}
