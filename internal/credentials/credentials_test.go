package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"linketron/internal/config"
)

func exerciseRepo(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	if _, err := repo.Get(ctx, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := repo.Put(ctx, 2, Record{AccessToken: "tok-b", UserURN: "urn-b"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, 1, Record{AccessToken: "tok-a", UserURN: "urn-a"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, 1, Record{AccessToken: "tok-a2", UserURN: "urn-a"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	rec, err := repo.Get(ctx, 1)
	if err != nil || rec.AccessToken != "tok-a2" {
		t.Fatalf("get: %+v %v", rec, err)
	}
	list, err := repo.List(ctx)
	if err != nil || len(list) != 2 || list[0].UserID != 1 || list[1].UserID != 2 {
		t.Fatalf("list: %+v %v", list, err)
	}
	if err := repo.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rec, ok, err := Lookup(ctx, repo, 1)
	if err != nil || ok || rec.Valid() {
		t.Fatalf("lookup after delete: %+v %v %v", rec, ok, err)
	}
	if _, ok, _ := Lookup(ctx, repo, 2); !ok {
		t.Fatalf("other user lost")
	}
}

func TestFileRepository(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data", "user_secrets.json")
	repo, err := NewFileRepository(p)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	exerciseRepo(t, repo)

	raw, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var doc map[string]map[string]string
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("file is not a JSON object: %v", err)
	}
	if doc["2"]["access_token"] != "tok-b" || doc["2"]["user_urn"] != "urn-b" {
		t.Fatalf("file shape: %s", raw)
	}
}

func TestFileRepository_SharedFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "secrets.json")
	a, _ := NewFileRepository(p)
	b, _ := NewFileRepository(p)
	ctx := context.Background()
	_ = a.Put(ctx, 10, Record{AccessToken: "x", UserURN: "y"})
	_ = b.Put(ctx, 20, Record{AccessToken: "x", UserURN: "y"})
	list, err := a.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("writers clobbered each other: %+v %v", list, err)
	}
}

func TestSQLiteRepository(t *testing.T) {
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "creds.db"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer repo.Close()
	exerciseRepo(t, repo)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{CredentialsBackend: "bogus"}
	if _, err := Open(cfg); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	cfg = &config.Config{CredentialsBackend: "file", CredentialsFilePath: filepath.Join(dir, "c.json")}
	if r, err := Open(cfg); err != nil {
		t.Fatalf("file backend: %v", err)
	} else if _, ok := r.(*FileRepository); !ok {
		t.Fatalf("wrong type %T", r)
	}
}

func TestMask(t *testing.T) {
	if Mask("abcdefgh") != "****efgh" || Mask("ab") != "****" {
		t.Fatalf("mask: %s %s", Mask("abcdefgh"), Mask("ab"))
	}
}
