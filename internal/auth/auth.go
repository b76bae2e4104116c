// Package auth decides who may talk to the bot and tracks access requests
// waiting for the admin.
package auth

import (
	"sort"
	"sync"
)

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Repository interface {
	LoadAll() ([]User, error)
	Upsert(user User) error
	Remove(userID int64) error
}

// Service holds the allowlist and the pending requests. An empty allowlist with
// no admin configured leaves the bot open to everyone.
type Service struct {
	mu      sync.RWMutex
	repo    Repository
	pending Repository
	allowed map[int64]User
	waiting map[int64]User
	adminID int64
}

func NewWithRepo(repo, pending Repository, initial []int64, adminID int64) (*Service, error) {
	s := &Service{
		repo:    repo,
		pending: pending,
		allowed: make(map[int64]User),
		waiting: make(map[int64]User),
		adminID: adminID,
	}
	if repo != nil {
		users, err := repo.LoadAll()
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			s.allowed[u.ID] = u
		}
	}
	// merge initial IDs (from env) without usernames
	for _, id := range initial {
		if _, ok := s.allowed[id]; !ok {
			s.allowed[id] = User{ID: id}
		}
	}
	if adminID != 0 {
		if _, ok := s.allowed[adminID]; !ok {
			s.allowed[adminID] = User{ID: adminID}
		}
	}
	if pending != nil {
		users, err := pending.LoadAll()
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			s.waiting[u.ID] = u
		}
	}
	return s, nil
}

func (s *Service) Open() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.allowed) == 0 && s.adminID == 0
}

func (s *Service) IsAdmin(userID int64) bool { return s.adminID != 0 && userID == s.adminID }

func (s *Service) AdminID() int64 { return s.adminID }

func (s *Service) IsAllowed(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.allowed) == 0 && s.adminID == 0 {
		return true
	}
	_, ok := s.allowed[userID]
	return ok
}

func (s *Service) Upsert(user User) error {
	s.mu.Lock()
	s.allowed[user.ID] = user
	s.mu.Unlock()
	if s.repo != nil {
		return s.repo.Upsert(user)
	}
	return nil
}

func (s *Service) Remove(userID int64) error {
	s.mu.Lock()
	delete(s.allowed, userID)
	s.mu.Unlock()
	if s.repo != nil {
		return s.repo.Remove(userID)
	}
	return nil
}

func (s *Service) List() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.allowed)
}

// Request records an access request. It returns false when one is already pending.
func (s *Service) Request(user User) (bool, error) {
	s.mu.Lock()
	if _, ok := s.waiting[user.ID]; ok {
		s.mu.Unlock()
		return false, nil
	}
	s.waiting[user.ID] = user
	s.mu.Unlock()
	if s.pending != nil {
		if err := s.pending.Upsert(user); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (s *Service) Pending() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sorted(s.waiting)
}

// Approve moves a pending user to the allowlist. ok is false when there was no
// such request.
func (s *Service) Approve(userID int64) (User, bool, error) {
	u, ok := s.takePending(userID)
	if !ok {
		return User{}, false, nil
	}
	if s.pending != nil {
		if err := s.pending.Remove(userID); err != nil {
			return u, true, err
		}
	}
	return u, true, s.Upsert(u)
}

func (s *Service) Deny(userID int64) (User, bool, error) {
	u, ok := s.takePending(userID)
	if !ok {
		return User{}, false, nil
	}
	if s.pending != nil {
		return u, true, s.pending.Remove(userID)
	}
	return u, true, nil
}

func (s *Service) takePending(userID int64) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.waiting[userID]
	if ok {
		delete(s.waiting, userID)
	}
	return u, ok
}

func sorted(m map[int64]User) []User {
	out := make([]User, 0, len(m))
	for _, u := range m {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
