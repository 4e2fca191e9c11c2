package store

import (
	"context"
	"path/filepath"
	"testing"
)

func setupTokenStore(t *testing.T) *SQLTokenStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokens.db")
	s, err := NewTokenStore(path)
	if err != nil {
		t.Fatalf("open token store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestTokenStore_UpsertAndGet(t *testing.T) {
	s := setupTokenStore(t)
	ctx := context.Background()

	rec := TokenRecord{SubjectID: "U1", AccessToken: "at1", RefreshToken: "rt1", ExpiryMS: 1000, Scope: "calendar drive"}
	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, ok, err := s.Get(ctx, "U1")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got != rec {
		t.Errorf("expected %+v, got %+v", rec, got)
	}
}

func TestTokenStore_UpsertReplacesAllFields(t *testing.T) {
	s := setupTokenStore(t)
	ctx := context.Background()

	s.Upsert(ctx, TokenRecord{SubjectID: "U1", AccessToken: "old", RefreshToken: "rt-old", ExpiryMS: 1, Scope: "a"})
	s.Upsert(ctx, TokenRecord{SubjectID: "U1", AccessToken: "new", RefreshToken: "rt-new", ExpiryMS: 2, Scope: "b"})

	got, _, _ := s.Get(ctx, "U1")
	if got.AccessToken != "new" || got.RefreshToken != "rt-new" || got.ExpiryMS != 2 || got.Scope != "b" {
		t.Errorf("expected fully replaced record, got %+v", got)
	}
}

func TestTokenStore_GetMissing(t *testing.T) {
	s := setupTokenStore(t)
	_, ok, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Errorf("expected not found")
	}
}

func TestTokenStore_Delete(t *testing.T) {
	s := setupTokenStore(t)
	ctx := context.Background()
	s.Upsert(ctx, TokenRecord{SubjectID: "U1", AccessToken: "a", RefreshToken: "r", ExpiryMS: 1, Scope: "s"})

	if err := s.Delete(ctx, "U1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, ok, _ := s.Get(ctx, "U1")
	if ok {
		t.Errorf("expected record gone after delete")
	}
}

func TestTokenStore_DeleteUnconditional(t *testing.T) {
	s := setupTokenStore(t)
	// Deleting a record that never existed must not error.
	if err := s.Delete(context.Background(), "never-existed"); err != nil {
		t.Fatalf("expected no error deleting missing record, got %v", err)
	}
}

func TestTokenStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.db")
	s1, err := NewTokenStore(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s1.Upsert(context.Background(), TokenRecord{SubjectID: "U1", AccessToken: "a", RefreshToken: "r", ExpiryMS: 1, Scope: "s"})
	s1.Close()

	s2, err := NewTokenStore(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, ok, _ := s2.Get(context.Background(), "U1")
	if !ok || got.AccessToken != "a" {
		t.Errorf("expected persisted record after reopen, got %+v ok=%v", got, ok)
	}
}
