package credentials

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"linketron/internal/storage"
)

// FileRepository keeps all records in one JSON object keyed by user id. Each
// mutation rewrites the whole file under a cross-process lock.
type FileRepository struct {
	file *storage.JSONFile
}

func NewFileRepository(path string) (*FileRepository, error) {
	f, err := storage.NewJSONFile(path)
	if err != nil {
		return nil, fmt.Errorf("credentials file: %w", err)
	}
	return &FileRepository{file: f}, nil
}

func (r *FileRepository) load() (map[string]Record, error) {
	all := map[string]Record{}
	if err := r.file.Read(&all); err != nil {
		return nil, err
	}
	return all, nil
}

func (r *FileRepository) Get(_ context.Context, userID int64) (Record, error) {
	all, err := r.load()
	if err != nil {
		return Record{}, err
	}
	rec, ok := all[key(userID)]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *FileRepository) Put(_ context.Context, userID int64, rec Record) error {
	all := map[string]Record{}
	return r.file.Update(&all, func() error {
		all[key(userID)] = rec
		return nil
	})
}

func (r *FileRepository) Delete(_ context.Context, userID int64) error {
	all := map[string]Record{}
	return r.file.Update(&all, func() error {
		delete(all, key(userID))
		return nil
	})
}

func (r *FileRepository) List(_ context.Context) ([]Entry, error) {
	all, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(all))
	for k, rec := range all {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Entry{UserID: id, Record: rec})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
