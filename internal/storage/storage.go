package storage

import (
	"context"

	"yieldfarm/internal/model"
)

// SnapshotStore persists the complete ledger state.
type SnapshotStore interface {
	// Load returns the stored snapshot. found is false when nothing has been saved yet.
	Load(ctx context.Context) (snap model.Snapshot, found bool, err error)
	// Save replaces the stored state with snap in a single unit.
	Save(ctx context.Context, snap model.Snapshot) error
	Close() error
}

// EventLog is a sink for committed ledger events.
type EventLog interface {
	PutEventBatch(events []model.EventRecord) error
}
