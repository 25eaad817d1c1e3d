package store

import (
	"errors"
	"testing"
)

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	if _, err := repo.Get(SettingMode); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() on empty store error = %v, want ErrNotFound", err)
	}

	v, err := repo.GetOr(SettingMode, "free")
	if err != nil || v != "free" {
		t.Errorf("GetOr() = %q, %v; want %q, nil", v, err, "free")
	}

	if err := repo.Set(SettingMode, "building"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(SettingMode, "solar"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	if err := repo.Set(SettingColor, "#ff0000"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := repo.Get(SettingMode)
	if err != nil || got != "solar" {
		t.Errorf("Get() = %q, %v; want %q, nil", got, err, "solar")
	}

	all, err := repo.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 2 || all[SettingColor] != "#ff0000" {
		t.Errorf("All() = %v", all)
	}
}
