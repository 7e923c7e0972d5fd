// Package retention decides how long history entries live.
//
// Two mechanisms cooperate and stay independent:
//   - Capacity eviction: the store trims the oldest unpinned entries after
//     every save (see store.EnforceHistoryLimit).
//   - Time expiry: unpinned entries get an expiry while auto-clear is on.
//     Expired entries are swept lazily by every history read and eagerly
//     by the Scheduler so the UI reflects expiry without a fresh read.
//
// Pinned entries are immune to both until unpinned.
package retention

import (
	"time"

	"github.com/JudeLabs/ClipCache/internal/settings"
)

// Poll intervals of the Scheduler.
const (
	IdleInterval   = time.Minute
	ActiveInterval = time.Second
)

// ExpiresAt returns the expiry assigned to an entry saved or unpinned at now,
// or nil when auto-clear is off.
func ExpiresAt(now time.Time, s settings.Settings) *time.Time {
	if !s.AutoClear {
		return nil
	}
	t := now.Add(s.AutoClearTTL()).UTC()
	return &t
}

// NextInterval returns the poll interval following a tick that observed
// autoClear. Auto-clear is only confirmed active by a tick, so a newly
// enabled auto-clear is first seen at the idle rate.
func NextInterval(autoClear bool) time.Duration {
	if autoClear {
		return ActiveInterval
	}
	return IdleInterval
}
