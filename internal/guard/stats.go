package guard

import "sync/atomic"

// Stats holds best-effort counters for messages in scope. They feed the
// periodic activity report and reset when a snapshot is taken with reset.
type Stats struct {
	seen         atomic.Uint64
	deleted      atomic.Uint64
	deleteFailed atomic.Uint64
}

type Snapshot struct {
	Seen         uint64
	Deleted      uint64
	DeleteFailed uint64
}

// Snapshot returns the counters since the last reset snapshot.
func (g *Guard) Snapshot(reset bool) Snapshot {
	if !reset {
		return Snapshot{
			Seen:         g.stats.seen.Load(),
			Deleted:      g.stats.deleted.Load(),
			DeleteFailed: g.stats.deleteFailed.Load(),
		}
	}
	return Snapshot{
		Seen:         g.stats.seen.Swap(0),
		Deleted:      g.stats.deleted.Swap(0),
		DeleteFailed: g.stats.deleteFailed.Swap(0),
	}
}
