package prayer

import (
	"time"
)

// day is the wraparound applied when a window crosses midnight.
const day = 24 * time.Hour

// State describes where "now" sits in the day's prayer windows. It is
// derived on every tick and never stored.
type State struct {
	// Current is the prayer whose window contains now; Next is the first
	// prayer strictly after now. Both are the schedule entries as given, so
	// without neighbours a wrapped Next is today's fajr and a wrapped
	// Current is one of today's entries, usually isha.
	Current Prayer
	Next    Prayer

	// CurrentAt and NextAt are the instants the window actually starts and
	// ends after shifting wrapped entries onto the adjacent day.
	CurrentAt time.Time
	NextAt    time.Time

	// Remaining is the non-negative time until NextAt.
	Remaining time.Duration
	// Progress is the elapsed fraction of the window, in [0, 1].
	Progress float64
}

// Wrapped reports whether the window crosses a day boundary.
func (s State) Wrapped() bool {
	return !s.Next.Time.Equal(s.NextAt) || !s.Current.Time.Equal(s.CurrentAt)
}

// Resolve finds the current and next prayer for now. When now is before the
// first entry or at/after the last one, the missing neighbour is taken from
// the same schedule shifted by a day: yesterday's isha and tomorrow's fajr
// differ from today's by at most a couple of minutes. Use ResolveAround when
// the adjacent days are known.
//
// Resolve returns ErrEmptySchedule when s has no instants.
func Resolve(s Schedule, now time.Time) (State, error) {
	return ResolveAround(nil, s, nil, now)
}

// ResolveAround is Resolve with the real schedules of the previous and next
// day. Either neighbour may be empty, in which case today's schedule stands
// in for it.
func ResolveAround(prev, today, next Schedule, now time.Time) (State, error) {
	today = today.present()
	if len(today) == 0 {
		return State{}, ErrEmptySchedule
	}
	prev, next = prev.present(), next.present()
	last := len(today) - 1

	idx := -1
	for i := range today {
		if today[i].Time.After(now) {
			idx = i
			break
		}
	}

	var st State
	switch idx {
	case -1:
		// Past the last instant: the window runs into tomorrow.
		st.Current, st.CurrentAt = today[last], today[last].Time
		st.Next, st.NextAt = firstAfter(next, today, now)
	case 0:
		// Before the first instant: the window started yesterday.
		st.Next, st.NextAt = today[0], today[0].Time
		st.Current, st.CurrentAt = latestAtOrBefore(prev, today, now)
	default:
		st.Current, st.CurrentAt = today[idx-1], today[idx-1].Time
		st.Next, st.NextAt = today[idx], today[idx].Time
	}

	st.Remaining = remaining(st.NextAt, now)
	st.Progress = progress(st.CurrentAt, st.NextAt, now)
	return st, nil
}

// latestAtOrBefore picks the entry of the previous day that is in effect at
// now. The previous day is prev, or today shifted back a day when prev is
// empty. Its last entry is usually the answer, but at high latitudes isha
// can fall after midnight, in which case an earlier entry still holds.
func latestAtOrBefore(prev, today Schedule, now time.Time) (Prayer, time.Time) {
	src, shift := prev, 0
	if len(src) == 0 {
		src, shift = today, -1
	}
	for i := len(src) - 1; i >= 0; i-- {
		if t := src[i].Time.AddDate(0, 0, shift); !t.After(now) {
			return src[i], t
		}
	}
	return src[0], src[0].Time.AddDate(0, 0, shift)
}

// firstAfter picks the first entry of the next day strictly after now, from
// next or from today shifted forward a day.
func firstAfter(next, today Schedule, now time.Time) (Prayer, time.Time) {
	src, shift := next, 0
	if len(src) == 0 {
		src, shift = today, 1
	}
	for i := range src {
		if t := src[i].Time.AddDate(0, 0, shift); t.After(now) {
			return src[i], t
		}
	}
	last := src[len(src)-1]
	return last, last.Time.AddDate(0, 0, shift)
}

func remaining(next, now time.Time) time.Duration {
	d := next.Sub(now)
	if d < 0 {
		d += day
	}
	if d < 0 {
		return 0
	}
	return d
}

func progress(start, end, now time.Time) float64 {
	if start.After(now) {
		start = start.Add(-day)
	}
	if !end.After(start) {
		end = end.Add(day)
	}
	span := end.Sub(start)
	if span <= 0 {
		return 0
	}
	f := float64(now.Sub(start)) / float64(span)
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
