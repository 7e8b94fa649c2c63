package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// LocalBackend keeps every shard as a JSON file inside one directory,
// named <kind>_<owner>.json (or <kind>.json for the users table).
type LocalBackend struct {
	dir string
}

func NewLocalBackend(dir string) (*LocalBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s, %w", dir, err)
	}

	return &LocalBackend{dir: dir}, nil
}

func (l *LocalBackend) path(kind Kind, owner string) string {
	if owner == "" {
		return filepath.Join(l.dir, string(kind)+".json")
	}

	return filepath.Join(l.dir, string(kind)+"_"+owner+".json")
}

func (l *LocalBackend) Get(_ context.Context, kind Kind, owner string) ([]byte, error) {
	data, err := os.ReadFile(l.path(kind, owner))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	return data, nil
}

func (l *LocalBackend) Put(_ context.Context, kind Kind, owner string, data []byte) error {
	return atomicWriteFile(l.path(kind, owner), data)
}

func (l *LocalBackend) Delete(_ context.Context, kind Kind, owner string) error {
	err := os.Remove(l.path(kind, owner))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	return nil
}

func (l *LocalBackend) List(_ context.Context, kind Kind) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, err
	}

	prefix := string(kind) + "_"

	var owners []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}

		owner := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json")
		if owner == "" {
			continue
		}

		owners = append(owners, owner)
	}

	if kind == KindUsers {
		if _, err := os.Stat(l.path(kind, AccountsOwner)); err == nil {
			owners = append(owners, AccountsOwner)
		}
	}

	sort.Strings(owners)
	return owners, nil
}

func (l *LocalBackend) Close() error {
	return nil
}

// atomicWriteFile writes through a temporary file so readers never see a
// half written shard
func atomicWriteFile(path string, data []byte) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, path)
}

var _ Backend = (*LocalBackend)(nil)
