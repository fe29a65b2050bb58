package store

import (
	"context"
	"fmt"
	"time"

	"github.com/smokyabdulrahman/prayer-compass/internal/notify"
	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

// FiredAlert is a delivered alert as recorded in the log.
type FiredAlert struct {
	ID          string
	Prayer      prayer.Key
	Channel     notify.Channel
	Title       string
	ScheduledAt time.Time
	FiredAt     time.Time
}

// RecordAlert logs a delivered alert. Recording the same alert twice is a
// no-op.
func (db *DB) RecordAlert(ctx context.Context, a notify.Alert, firedAt time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT OR IGNORE INTO alert_log (id, prayer, channel, title, scheduled_at, fired_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.Key.String(), string(a.Channel), a.Title, a.At.UTC(), firedAt.UTC())
	if err != nil {
		return fmt.Errorf("recording alert %s: %w", a.ID, err)
	}
	return nil
}

// RecentAlerts returns up to limit logged alerts, newest first.
func (db *DB) RecentAlerts(ctx context.Context, limit int) ([]FiredAlert, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, prayer, channel, title, scheduled_at, fired_at
		FROM alert_log ORDER BY fired_at DESC, scheduled_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying alert log: %w", err)
	}
	defer rows.Close()

	var out []FiredAlert
	for rows.Next() {
		var fa FiredAlert
		var key, channel string
		if err := rows.Scan(&fa.ID, &key, &channel, &fa.Title, &fa.ScheduledAt, &fa.FiredAt); err != nil {
			return nil, fmt.Errorf("scanning alert log: %w", err)
		}
		fa.Prayer, err = prayer.ParseKey(key)
		if err != nil {
			return nil, fmt.Errorf("alert %s: %w", fa.ID, err)
		}
		fa.Channel = notify.Channel(channel)
		out = append(out, fa)
	}
	return out, rows.Err()
}

// PruneAlerts deletes log entries fired before cutoff and returns how many
// were removed.
func (db *DB) PruneAlerts(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM alert_log WHERE fired_at < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning alert log: %w", err)
	}
	return res.RowsAffected()
}
