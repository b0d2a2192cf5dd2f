package ports

import "github.com/ghalamif/InfraBoard/internal/domain"

type OutboxEntryID uint64

// Outbox spools reports whose sink write failed so they can be redelivered
// later, including after a restart.
type Outbox interface {
	Append(r *domain.Report) (OutboxEntryID, error)
	Iterate(from OutboxEntryID, fn func(id OutboxEntryID, r *domain.Report) error) error
	Commit(upto OutboxEntryID) error
	Compact() error
	Stats() OutboxStats
	Close() error
}

type OutboxStats struct {
	OldestUncommitted OutboxEntryID
	LatestAppended    OutboxEntryID
	SizeBytes         int64
}

// Pending is the number of appended entries not yet committed.
func (s OutboxStats) Pending() int {
	if s.LatestAppended < s.OldestUncommitted {
		return 0
	}
	return int(s.LatestAppended - s.OldestUncommitted + 1)
}
