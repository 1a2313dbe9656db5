package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/scorewatch/scorewatch/internal/domain/reminder"
	"github.com/scorewatch/scorewatch/internal/domain/settings"
)

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	repo, err := NewSettingsRepository(path)
	if err != nil {
		t.Fatalf("NewSettingsRepository: %v", err)
	}

	s := settings.Default()
	s.FilterLive = true
	s.Theme = map[string]any{"transparency": 0.8, "skin": "dark"}
	s.Reminders = []reminder.Reminder{
		{MatchName: "Liverpool - Arsenal", TriggerAt: 1756500000},
		{MatchName: "Liverpool - Arsenal", TriggerAt: 1756500000}, // duplicate, dropped on save
	}
	if err := repo.Save(context.Background(), s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.FilterLive || loaded.League.URL != s.League.URL {
		t.Fatalf("unexpected settings: %+v", loaded)
	}
	if len(loaded.Reminders) != 1 {
		t.Fatalf("expected deduplicated reminders, got %d", len(loaded.Reminders))
	}
	if loaded.Theme["skin"] != "dark" {
		t.Fatalf("theme fields must pass through opaquely, got %+v", loaded.Theme)
	}
}

func TestSettingsMissingFileReturnsDefaults(t *testing.T) {
	repo, err := NewSettingsRepository(filepath.Join(t.TempDir(), "settings.json"))
	if err != nil {
		t.Fatalf("NewSettingsRepository: %v", err)
	}
	loaded, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.DiscoveryEnabled || loaded.League.URL == "" {
		t.Fatalf("expected defaults, got %+v", loaded)
	}
}

func TestSettingsCorruptFileSurfacesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("][bad"), 0o644); err != nil {
		t.Fatal(err)
	}
	repo, err := NewSettingsRepository(path)
	if err != nil {
		t.Fatalf("NewSettingsRepository: %v", err)
	}
	if _, err := repo.Load(context.Background()); err == nil {
		t.Fatal("expected decode error for corrupt settings")
	}
}
