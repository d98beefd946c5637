package court

import "github.com/riskibarqy/courtsync/internal/domain/match"

// RemoveAt removes the match at idx and keeps the active index pointing at
// the same logical match. When the removed match was the active one the index
// now points at its successor (clamped to the end of the queue) and wasActive
// is true.
func RemoveAt(c *Court, idx int) (removed match.MatchRef, wasActive bool, ok bool) {
	if idx < 0 || idx >= len(c.Queue) {
		return match.MatchRef{}, false, false
	}
	removed = c.Queue[idx]
	c.Queue = append(c.Queue[:idx:idx], c.Queue[idx+1:]...)

	if c.ActiveIndex == nil {
		return removed, false, true
	}
	active := *c.ActiveIndex
	switch {
	case idx < active:
		active--
	case idx == active:
		wasActive = true
	}
	if len(c.Queue) == 0 {
		c.ActiveIndex = nil
		return removed, wasActive, true
	}
	if active >= len(c.Queue) {
		active = len(c.Queue) - 1
	}
	if active < 0 {
		active = 0
	}
	c.ActiveIndex = &active
	return removed, wasActive, true
}

// InsertOrdered places ref by scheduled time then match number, after any
// entries that tie with it. When afterActive is set the match never lands at
// or before the active index. The insert position is returned.
func InsertOrdered(c *Court, ref match.MatchRef, afterActive bool) int {
	pos := len(c.Queue)
	for i, existing := range c.Queue {
		if sortsBefore(ref, existing) {
			pos = i
			break
		}
	}
	if afterActive && c.ActiveIndex != nil && pos <= *c.ActiveIndex {
		pos = *c.ActiveIndex + 1
	}

	c.Queue = append(c.Queue, match.MatchRef{})
	copy(c.Queue[pos+1:], c.Queue[pos:])
	c.Queue[pos] = ref

	if c.ActiveIndex != nil && pos <= *c.ActiveIndex {
		active := *c.ActiveIndex + 1
		c.ActiveIndex = &active
	}
	return pos
}

// IndexOf finds a queued match by its fetch URL.
func IndexOf(c Court, url string) int {
	for i, ref := range c.Queue {
		if ref.URL == url {
			return i
		}
	}
	return -1
}

func sortsBefore(a, b match.MatchRef) bool {
	switch {
	case a.ScheduledAt != nil && b.ScheduledAt == nil:
		return true
	case a.ScheduledAt == nil && b.ScheduledAt != nil:
		return false
	case a.ScheduledAt != nil && b.ScheduledAt != nil && !a.ScheduledAt.Equal(*b.ScheduledAt):
		return a.ScheduledAt.Before(*b.ScheduledAt)
	}
	an, bn := a.MatchNumber, b.MatchNumber
	switch {
	case an > 0 && bn <= 0:
		return true
	case an <= 0:
		return false
	}
	return an < bn
}
