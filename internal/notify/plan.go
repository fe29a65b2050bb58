// Package notify plans and arms prayer alerts.
//
// Every prayer except sunrise gets two alerts: an audible one on the ezan
// channel when its time begins and a silent reminder a few minutes earlier.
// Delivery is left to a Notifier.
package notify

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/smokyabdulrahman/prayer-compass/internal/prayer"
)

// Channel separates audible prayer-time alerts from silent reminders.
type Channel string

const (
	ChannelEzan     Channel = "ezan"
	ChannelReminder Channel = "reminder"
)

// DefaultLead is how long before a prayer the reminder fires.
const DefaultLead = 10 * time.Minute

// Alert is a single planned notification.
type Alert struct {
	ID      string
	Key     prayer.Key
	Channel Channel
	At      time.Time
	Title   string
	Body    string
}

// Plan returns the alerts for s that are still ahead of now, sorted by time.
// A lead of zero or less disables reminders.
func Plan(s prayer.Schedule, now time.Time, lead time.Duration, lang prayer.Language) []Alert {
	var alerts []Alert
	for _, p := range s {
		if p.Absent() || !p.Key.Ezan() {
			continue
		}
		name := p.Key.Name(lang)

		if p.Time.After(now) {
			title, body := ezanText(name, lang)
			alerts = append(alerts, Alert{
				ID:      uuid.NewString(),
				Key:     p.Key,
				Channel: ChannelEzan,
				At:      p.Time,
				Title:   title,
				Body:    body,
			})
		}

		if lead <= 0 {
			continue
		}
		if before := p.Time.Add(-lead); before.After(now) {
			title, body := reminderText(name, lead, lang)
			alerts = append(alerts, Alert{
				ID:      uuid.NewString(),
				Key:     p.Key,
				Channel: ChannelReminder,
				At:      before,
				Title:   title,
				Body:    body,
			})
		}
	}

	sortAlerts(alerts)
	return alerts
}

func sortAlerts(alerts []Alert) {
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].At.Before(alerts[j].At)
	})
}

func ezanText(name string, lang prayer.Language) (string, string) {
	if lang == prayer.Turkish {
		return name + " vakti", name + " vakti girdi."
	}
	return name + " time", "It is time for " + name + "."
}

func reminderText(name string, lead time.Duration, lang prayer.Language) (string, string) {
	mins := int(lead / time.Minute)
	if lang == prayer.Turkish {
		return fmt.Sprintf("%s vaktine %d dakika kaldı", name, mins), name + " için hazırlanın."
	}
	return fmt.Sprintf("%s in %d minutes", name, mins), "Get ready for " + name + "."
}

// TestAlert builds a one-off ezan alert at the given instant, used to check
// that delivery works.
func TestAlert(at time.Time, lang prayer.Language) Alert {
	a := Alert{ID: uuid.NewString(), Key: prayer.Isha, Channel: ChannelEzan, At: at}
	if lang == prayer.Turkish {
		a.Title, a.Body = "Test bildirimi", "Bildirimler çalışıyor."
	} else {
		a.Title, a.Body = "Test notification", "Notifications are working."
	}
	return a
}
