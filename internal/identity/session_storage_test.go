package identity

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"deepwork-api/internal/domain"
)

func TestFileSessionStorageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	storage := NewFileSessionStorage(path)

	name := "Ada"
	session := &domain.Session{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().UTC().Add(time.Hour).Truncate(time.Second),
		Subject:      "user-1",
		Email:        "a@b.com",
		FullName:     &name,
	}
	if err := storage.Save(session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := storage.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded == nil {
		t.Fatal("expected session")
	}
	if loaded.Subject != "user-1" || loaded.Email != "a@b.com" {
		t.Fatalf("unexpected session %+v", loaded)
	}
	if loaded.FullName == nil || *loaded.FullName != "Ada" {
		t.Fatal("expected full name to survive the round trip")
	}
}

func TestFileSessionStorageMissingFile(t *testing.T) {
	storage := NewFileSessionStorage(filepath.Join(t.TempDir(), "missing.json"))
	loaded, err := storage.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected nil session, got %+v", loaded)
	}
}

func TestFileSessionStorageCorruptFileDiscarded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	storage := NewFileSessionStorage(path)
	loaded, err := storage.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected corrupt file discarded, got %+v", loaded)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected corrupt file removed")
	}
}

func TestFileSessionStorageSaveNilClears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	storage := NewFileSessionStorage(path)

	if err := storage.Save(&domain.Session{Subject: "user-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := storage.Save(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded, err := storage.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded != nil {
		t.Fatalf("expected cleared storage, got %+v", loaded)
	}
}
