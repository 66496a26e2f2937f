package farm

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"yieldfarm/internal/model"
)

// EventKind names a committed ledger operation.
type EventKind string

const (
	EventPoolAdded       EventKind = "pool_added"
	EventPoolRateChanged EventKind = "pool_rate_changed"
	EventScheduleChanged EventKind = "schedule_changed"
	EventDeposit         EventKind = "deposit"
	EventWithdraw        EventKind = "withdraw"
	EventClaim           EventKind = "claim"
)

// Event is emitted after an operation commits.
type Event struct {
	Kind        EventKind
	PoolID      uint64
	Participant common.Address
	Asset       common.Address
	Amount      *uint256.Int
	Tick        uint64
}

// EventSink receives committed events.
type EventSink interface {
	Emit(Event)
}

// EventBuffer collects events in memory until they are drained.
type EventBuffer struct {
	events []Event
}

func (b *EventBuffer) Emit(e Event) {
	b.events = append(b.events, e)
}

// Drain returns the buffered events and resets the buffer.
func (b *EventBuffer) Drain() []Event {
	out := b.events
	b.events = nil
	return out
}

// Record converts the event for the event log.
func (e Event) Record(at time.Time) model.EventRecord {
	rec := model.EventRecord{
		Kind:       string(e.Kind),
		PoolID:     e.PoolID,
		Tick:       e.Tick,
		RecordedAt: at.UTC().Format(time.RFC3339Nano),
	}
	if e.Participant != (common.Address{}) {
		rec.Participant = e.Participant.Hex()
	}
	if e.Asset != (common.Address{}) {
		rec.Asset = e.Asset.Hex()
	}
	if e.Amount != nil {
		rec.Amount = FormatAmount(e.Amount)
	}
	return rec
}

type nopSink struct{}

func (nopSink) Emit(Event) {}
