package storage_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/openjudge/judgectl/storage"
	"github.com/openjudge/judgectl/storage/bbolt"
	"github.com/openjudge/judgectl/storage/memory"
)

// storeTests runs the common suite against any storage.Store implementation.
func storeTests(t *testing.T, store storage.Store) {
	t.Helper()

	t.Run("LoadEmpty", func(t *testing.T) {
		_, err := store.Load()
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		if err := store.Save([]byte(`{"access_token":"T1"}`)); err != nil {
			t.Fatal(err)
		}
		got, err := store.Load()
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != `{"access_token":"T1"}` {
			t.Fatalf("got %q", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		if err := store.Save([]byte(`v1`)); err != nil {
			t.Fatal(err)
		}
		if err := store.Save([]byte(`v2`)); err != nil {
			t.Fatal(err)
		}
		got, err := store.Load()
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "v2" {
			t.Fatalf("got %q, want v2", got)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Save([]byte(`gone`)); err != nil {
			t.Fatal(err)
		}
		if err := store.Delete(); err != nil {
			t.Fatal(err)
		}
		_, err := store.Load()
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound after delete", err)
		}
	})

	t.Run("DeleteAbsent", func(t *testing.T) {
		if err := store.Delete(); err != nil {
			t.Fatal(err)
		}
		if err := store.Delete(); err != nil {
			t.Fatal(err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	storeTests(t, memory.NewStore())
}

func TestBBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	store, err := bbolt.NewStoreFromFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	storeTests(t, store)
}

func TestBBoltStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	store, err := bbolt.NewStoreFromFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save([]byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	store, err = bbolt.NewStoreFromFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	got, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "persisted" {
		t.Fatalf("got %q after reopen", got)
	}
}
