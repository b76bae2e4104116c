package auth

import (
	"linketron/internal/storage"
)

// FileRepository stores a user list as a JSON array.
type FileRepository struct {
	file *storage.JSONFile
}

func NewFileRepository(path string) (*FileRepository, error) {
	f, err := storage.NewJSONFile(path)
	if err != nil {
		return nil, err
	}
	return &FileRepository{file: f}, nil
}

func (r *FileRepository) LoadAll() ([]User, error) {
	users := []User{}
	if err := r.file.Read(&users); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *FileRepository) Upsert(user User) error {
	var users []User
	return r.file.Update(&users, func() error {
		for i, u := range users {
			if u.ID == user.ID {
				users[i] = user
				return nil
			}
		}
		users = append(users, user)
		return nil
	})
}

func (r *FileRepository) Remove(userID int64) error {
	var users []User
	return r.file.Update(&users, func() error {
		out := users[:0]
		for _, u := range users {
			if u.ID != userID {
				out = append(out, u)
			}
		}
		users = out
		return nil
	})
}
