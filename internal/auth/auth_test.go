package auth

import (
	"path/filepath"
	"testing"
)

type memRepo struct{ users []User }

func (m *memRepo) LoadAll() ([]User, error) { return append([]User{}, m.users...), nil }
func (m *memRepo) Upsert(u User) error {
	for i, x := range m.users {
		if x.ID == u.ID {
			m.users[i] = u
			return nil
		}
	}
	m.users = append(m.users, u)
	return nil
}
func (m *memRepo) Remove(id int64) error {
	out := make([]User, 0, len(m.users))
	for _, x := range m.users {
		if x.ID != id {
			out = append(out, x)
		}
	}
	m.users = out
	return nil
}

func TestServiceBasic(t *testing.T) {
	repo := &memRepo{users: []User{{ID: 10, Username: "alice"}}}
	svc, err := NewWithRepo(repo, nil, []int64{20}, 0)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	if !svc.IsAllowed(10) {
		t.Fatalf("repo preload not effective")
	}
	if !svc.IsAllowed(20) {
		t.Fatalf("initial env list not merged")
	}
	if svc.IsAllowed(30) {
		t.Fatalf("unexpected allowed")
	}

	if err := svc.Upsert(User{ID: 30, Username: "bob"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !svc.IsAllowed(30) {
		t.Fatalf("upsert not effective")
	}

	if err := svc.Remove(10); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if svc.IsAllowed(10) {
		t.Fatalf("remove not effective")
	}

	lst := svc.List()
	if len(lst) != 2 || lst[0].ID != 20 {
		t.Fatalf("want 2 sorted users, got %+v", lst)
	}
}

func TestService_OpenWhenUnconfigured(t *testing.T) {
	svc, _ := NewWithRepo(nil, nil, nil, 0)
	if !svc.Open() || !svc.IsAllowed(12345) {
		t.Fatalf("empty allowlist without admin should be open")
	}
	svc, _ = NewWithRepo(nil, nil, nil, 1)
	if svc.Open() || svc.IsAllowed(2) || !svc.IsAllowed(1) {
		t.Fatalf("admin-only bot should admit just the admin")
	}
}

func TestService_RequestApproveDeny(t *testing.T) {
	pending := &memRepo{}
	svc, _ := NewWithRepo(&memRepo{}, pending, nil, 1)

	first, err := svc.Request(User{ID: 5, Username: "eve"})
	if err != nil || !first {
		t.Fatalf("first request: %v %v", first, err)
	}
	again, _ := svc.Request(User{ID: 5})
	if again {
		t.Fatalf("duplicate request accepted")
	}
	_, _ = svc.Request(User{ID: 6})
	if len(pending.users) != 2 || len(svc.Pending()) != 2 {
		t.Fatalf("pending not persisted: %+v", pending.users)
	}

	u, ok, err := svc.Approve(5)
	if err != nil || !ok || u.Username != "eve" || !svc.IsAllowed(5) {
		t.Fatalf("approve: %+v %v %v", u, ok, err)
	}
	if _, ok, _ := svc.Approve(5); ok {
		t.Fatalf("second approve should find nothing")
	}
	if _, ok, _ := svc.Deny(6); !ok || svc.IsAllowed(6) {
		t.Fatalf("deny failed")
	}
	if len(pending.users) != 0 {
		t.Fatalf("pending repo not cleaned: %+v", pending.users)
	}
}

func TestFileRepository(t *testing.T) {
	p := filepath.Join(t.TempDir(), "allowlist.json")
	repo, err := NewFileRepository(p)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if users, err := repo.LoadAll(); err != nil || len(users) != 0 {
		t.Fatalf("empty load: %v %v", users, err)
	}
	_ = repo.Upsert(User{ID: 1, Username: "a"})
	_ = repo.Upsert(User{ID: 2, Username: "b"})
	_ = repo.Upsert(User{ID: 1, Username: "a2"})
	_ = repo.Remove(2)

	reopened, _ := NewFileRepository(p)
	users, err := reopened.LoadAll()
	if err != nil || len(users) != 1 || users[0].Username != "a2" {
		t.Fatalf("persisted users: %+v %v", users, err)
	}
}
