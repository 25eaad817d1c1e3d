package store

import (
	"database/sql"
	"errors"
)

// Setting keys used by the editor.
const (
	SettingMode  = "editor.mode"
	SettingColor = "editor.color"
	SettingPart  = "editor.part"
	SettingBody  = "editor.body"
)

// SettingsRepository reads and writes key-value settings.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value for key, or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

// GetOr returns the value for key, or def when it is unset.
func (r *SettingsRepository) GetOr(key, def string) (string, error) {
	v, err := r.Get(key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	return v, err
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// All returns every stored setting.
func (r *SettingsRepository) All() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}
