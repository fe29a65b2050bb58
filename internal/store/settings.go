package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const keyNotifications = "notifications_enabled"

// Setting returns the stored value for key and whether it was set.
func (db *DB) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting stores value under key, replacing any previous value.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// NotificationsEnabled reports the alert preference. Alerts are on until the
// user turns them off.
func (db *DB) NotificationsEnabled(ctx context.Context) (bool, error) {
	v, ok, err := db.Setting(ctx, keyNotifications)
	if err != nil || !ok {
		return true, err
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return true, fmt.Errorf("invalid %s value %q: %w", keyNotifications, v, err)
	}
	return on, nil
}

// SetNotificationsEnabled persists the alert preference.
func (db *DB) SetNotificationsEnabled(ctx context.Context, on bool) error {
	return db.SetSetting(ctx, keyNotifications, strconv.FormatBool(on))
}
