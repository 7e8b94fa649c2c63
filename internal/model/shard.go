package model

import "time"

// Shard is one owner-keyed JSON collection stored in a SQL database
type Shard struct {
	Kind      string `gorm:"primaryKey;size:32"`
	OwnerID   string `gorm:"primaryKey;size:64"`
	Data      []byte `gorm:"not null"`
	UpdatedAt time.Time
}
