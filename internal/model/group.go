package model

import (
	"slices"
	"time"
)

type GroupMember struct {
	UserID   int64     `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}

type Group struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"createdAt"`
	OwnerID     int64         `json:"ownerId"`
	Members     []GroupMember `json:"members"`
	Password    string        `json:"password,omitempty"`
	MemberLimit int           `json:"memberLimit,omitempty"`
}

func (g *Group) HasMember(userID int64) bool {
	return slices.ContainsFunc(g.Members, func(m GroupMember) bool {
		return m.UserID == userID
	})
}

// Full reports whether the member limit, if any, has been reached
func (g *Group) Full() bool {
	return g.MemberLimit > 0 && len(g.Members) >= g.MemberLimit
}

// PublicGroup hides the join password
type PublicGroup struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"createdAt"`
	OwnerID     int64         `json:"ownerId"`
	Members     []GroupMember `json:"members"`
	HasPassword bool          `json:"hasPassword"`
	MemberLimit int           `json:"memberLimit,omitempty"`
}

func (g *Group) Public() PublicGroup {
	return PublicGroup{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		CreatedAt:   g.CreatedAt,
		OwnerID:     g.OwnerID,
		Members:     g.Members,
		HasPassword: g.Password != "",
		MemberLimit: g.MemberLimit,
	}
}
