// Package store persists owner-keyed JSON collections ("shards"). Every
// collection is addressed by a kind and the id of the user that owns it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

type Kind string

const (
	KindUsers         Kind = "users"
	KindStudySessions Kind = "study_sessions"
	KindSubjects      Kind = "subjects"
	KindGroups        Kind = "groups"
)

// AccountsOwner is the owner key of the single shared users shard
const AccountsOwner = ""

var ErrNotFound = errors.New("shard not found")

// Backend moves raw shard documents in and out of durable storage.
// Get returns ErrNotFound for a missing shard and Delete of a missing
// shard is not an error.
type Backend interface {
	Get(ctx context.Context, kind Kind, owner string) ([]byte, error)
	Put(ctx context.Context, kind Kind, owner string, data []byte) error
	Delete(ctx context.Context, kind Kind, owner string) error
	List(ctx context.Context, kind Kind) ([]string, error)
	Close() error
}

type Store struct {
	b     Backend
	locks *keyedMutex
}

func New(b Backend) *Store {
	return &Store{
		b:     b,
		locks: newKeyedMutex(),
	}
}

func (s *Store) Backend() Backend {
	return s.b
}

func (s *Store) Close() error {
	return s.b.Close()
}

// Drop removes a whole shard while holding its lock
func (s *Store) Drop(ctx context.Context, kind Kind, owner string) error {
	unlock := s.locks.Lock(lockKey(kind, owner))
	defer unlock()

	return s.b.Delete(ctx, kind, owner)
}

// Load reads a shard. A missing shard is an empty collection.
func Load[T any](ctx context.Context, s *Store, kind Kind, owner string) ([]T, error) {
	return load[T](ctx, s.b, kind, owner)
}

// Update runs fn over the shard while holding the shard's lock and writes
// back whatever fn returns. Nothing is written when fn fails. A collection
// left empty deletes the shard.
func Update[T any](ctx context.Context, s *Store, kind Kind, owner string, fn func(items []T) ([]T, error)) error {
	unlock := s.locks.Lock(lockKey(kind, owner))
	defer unlock()

	items, err := load[T](ctx, s.b, kind, owner)
	if err != nil {
		return err
	}

	items, err = fn(items)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		return s.b.Delete(ctx, kind, owner)
	}

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s shard for %q, %w", kind, owner, err)
	}

	return s.b.Put(ctx, kind, owner, data)
}

// Scan calls fn for every shard of a kind until fn returns false
func Scan[T any](ctx context.Context, s *Store, kind Kind, fn func(owner string, items []T) bool) error {
	owners, err := s.b.List(ctx, kind)
	if err != nil {
		return fmt.Errorf("failed to list %s shards, %w", kind, err)
	}

	for _, owner := range owners {
		items, err := load[T](ctx, s.b, kind, owner)
		if err != nil {
			return err
		}

		if !fn(owner, items) {
			return nil
		}
	}

	return nil
}

func load[T any](ctx context.Context, b Backend, kind Kind, owner string) ([]T, error) {
	data, err := b.Get(ctx, kind, owner)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []T{}, nil
		}

		return nil, fmt.Errorf("failed to read %s shard for %q, %w", kind, owner, err)
	}

	var items []T
	if len(data) == 0 {
		return []T{}, nil
	}

	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode %s shard for %q, %w", kind, owner, err)
	}

	if items == nil {
		items = []T{}
	}

	return items, nil
}

func lockKey(kind Kind, owner string) string {
	return string(kind) + "/" + owner
}
