package farm

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Position is one participant's stake in one pool.
type Position struct {
	PoolID        uint64
	Participant   common.Address
	Amount        *uint256.Int
	RewardDebt    *uint256.Int
	PendingReward *uint256.Int
}

func (p Position) copy() Position {
	p.Amount = clone(p.Amount)
	p.RewardDebt = clone(p.RewardDebt)
	p.PendingReward = clone(p.PendingReward)
	return p
}

type positionKey struct {
	poolID      uint64
	participant common.Address
}

// StakeLedger stores positions keyed by (pool, participant).
type StakeLedger struct {
	positions map[positionKey]Position
}

func NewStakeLedger() *StakeLedger {
	return &StakeLedger{positions: make(map[positionKey]Position)}
}

// Get returns a detached copy of the position.
func (l *StakeLedger) Get(poolID uint64, participant common.Address) (Position, bool) {
	pos, ok := l.positions[positionKey{poolID, participant}]
	if !ok {
		return Position{}, false
	}
	return pos.copy(), true
}

// getOrEmpty returns the stored position or a fresh zero position.
func (l *StakeLedger) getOrEmpty(poolID uint64, participant common.Address) Position {
	if pos, ok := l.Get(poolID, participant); ok {
		return pos
	}
	return Position{
		PoolID:        poolID,
		Participant:   participant,
		Amount:        new(uint256.Int),
		RewardDebt:    new(uint256.Int),
		PendingReward: new(uint256.Int),
	}
}

func (l *StakeLedger) put(pos Position) {
	l.positions[positionKey{pos.PoolID, pos.Participant}] = pos.copy()
}

// ForPool returns the positions of a pool ordered by participant address.
func (l *StakeLedger) ForPool(poolID uint64) []Position {
	out := make([]Position, 0)
	for key, pos := range l.positions {
		if key.poolID == poolID {
			out = append(out, pos.copy())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].Participant.Bytes(), out[j].Participant.Bytes()) < 0
	})
	return out
}

// Len returns the number of positions across all pools.
func (l *StakeLedger) Len() int {
	return len(l.positions)
}
