package store

import (
	"context"
	"errors"
	"time"

	"tickr/study-api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormBackend stores shards as rows of the shards table
type GormBackend struct {
	db *gorm.DB
}

func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

func (g *GormBackend) Get(ctx context.Context, kind Kind, owner string) ([]byte, error) {
	var shard model.Shard

	err := g.db.WithContext(ctx).
		Where("kind = ? AND owner_id = ?", string(kind), owner).
		First(&shard).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return shard.Data, nil
}

func (g *GormBackend) Put(ctx context.Context, kind Kind, owner string, data []byte) error {
	return g.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "kind"}, {Name: "owner_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&model.Shard{
			Kind:      string(kind),
			OwnerID:   owner,
			Data:      data,
			UpdatedAt: time.Now(),
		}).
		Error
}

func (g *GormBackend) Delete(ctx context.Context, kind Kind, owner string) error {
	return g.db.WithContext(ctx).
		Where("kind = ? AND owner_id = ?", string(kind), owner).
		Delete(&model.Shard{}).
		Error
}

func (g *GormBackend) List(ctx context.Context, kind Kind) ([]string, error) {
	var owners []string

	err := g.db.WithContext(ctx).
		Model(&model.Shard{}).
		Where("kind = ?", string(kind)).
		Order("owner_id").
		Pluck("owner_id", &owners).
		Error
	if err != nil {
		return nil, err
	}

	return owners, nil
}

func (g *GormBackend) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

var _ Backend = (*GormBackend)(nil)
