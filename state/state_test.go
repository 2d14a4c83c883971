package state

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStoreOperations(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "config", "settings.yml"))

	t.Run("Load empty state", func(t *testing.T) {
		st, err := store.Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if st == nil {
			t.Fatal("Load() returned nil state")
		}
		if len(st) != 0 {
			t.Errorf("Load() returned non-empty state: %v", st)
		}
	})

	t.Run("Set and Get string value", func(t *testing.T) {
		if err := store.Set("wallpaper_path", "/srv/walls"); err != nil {
			t.Fatalf("Set() error = %v", err)
		}

		got, err := store.GetString("wallpaper_path")
		if err != nil {
			t.Fatalf("GetString() error = %v", err)
		}
		if got != "/srv/walls" {
			t.Errorf("GetString() = %v, want /srv/walls", got)
		}
	})

	t.Run("GetString formats non-string values", func(t *testing.T) {
		if err := store.Set("wallpaper_timer", 600); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		got, err := store.GetString("wallpaper_timer")
		if err != nil {
			t.Fatalf("GetString() error = %v", err)
		}
		if got != "600" {
			t.Errorf("GetString() = %q, want 600", got)
		}
	})

	t.Run("Missing key", func(t *testing.T) {
		_, ok, err := store.Get("nope")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if ok {
			t.Error("Get() found a key that was never set")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete("wallpaper_path"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if _, ok, _ := store.Get("wallpaper_path"); ok {
			t.Error("key still present after Delete()")
		}
	})

	t.Run("Unknown keys survive", func(t *testing.T) {
		if err := os.WriteFile(store.Path(), []byte("custom:\n  nested: true\nwallpaper_timer: 5\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := store.Set("wallpaper_paused", true); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		data, err := os.ReadFile(store.Path())
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "nested: true") {
			t.Errorf("custom key was dropped:\n%s", data)
		}
	})

	t.Run("No temp files left behind", func(t *testing.T) {
		entries, err := os.ReadDir(filepath.Dir(store.Path()))
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Errorf("expected only the settings file, found %d entries", len(entries))
		}
	})
}

func TestStoreTOML(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "settings.toml"))
	if err := store.Set("wallpaper_delay", 7); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "wallpaper_delay = 7") {
		t.Errorf("unexpected TOML output:\n%s", data)
	}

	got, err := store.GetString("wallpaper_delay")
	if err != nil {
		t.Fatalf("GetString() error = %v", err)
	}
	if got != "7" {
		t.Errorf("GetString() = %q, want 7", got)
	}
}

func TestUpdateAbortsOnError(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "settings.yml"))
	if err := store.Set("wallpaper_timer", 60); err != nil {
		t.Fatal(err)
	}

	sentinel := errors.New("rejected")
	err := store.Update(func(st State) error {
		st["wallpaper_timer"] = -1
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Update() error = %v, want %v", err, sentinel)
	}

	got, _ := store.GetString("wallpaper_timer")
	if got != "60" {
		t.Errorf("value changed despite error: %q", got)
	}
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yml")
	if err := os.WriteFile(path, []byte("wallpaper_timer: [1"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path).Load(); err == nil {
		t.Error("expected parse error")
	}
}
