package farm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"yieldfarm/internal/fixedpoint"
)

// PoolCount returns the number of registered pools.
func (m *Manager) PoolCount() int {
	return m.registry.Count()
}

// PoolInfo returns the pool as it would look if accrued to tick. Stored state is not touched.
func (m *Manager) PoolInfo(poolID uint64, tick uint64) (Pool, error) {
	pool, err := m.registry.Get(poolID)
	if err != nil {
		return Pool{}, err
	}
	if err := accrue(&pool, m.cfg.Schedule, tick); err != nil {
		return Pool{}, err
	}
	return pool, nil
}

// PositionInfo returns the participant's position settled to tick without mutating it.
func (m *Manager) PositionInfo(poolID uint64, participant common.Address, tick uint64) (Position, error) {
	pool, err := m.PoolInfo(poolID, tick)
	if err != nil {
		return Position{}, err
	}
	pos, ok := m.ledger.Get(poolID, participant)
	if !ok {
		return Position{}, fmt.Errorf("position %d/%s: %w", poolID, participant.Hex(), ErrNotFound)
	}
	if err := settle(&pos, &pool); err != nil {
		return Position{}, err
	}
	if err := checkpoint(&pos, &pool); err != nil {
		return Position{}, err
	}
	return pos, nil
}

// PendingReward is the reward the participant could claim at tick.
func (m *Manager) PendingReward(poolID uint64, participant common.Address, tick uint64) (*uint256.Int, error) {
	pos, err := m.PositionInfo(poolID, participant, tick)
	if err != nil {
		return nil, err
	}
	return pos.PendingReward, nil
}

// Pools returns the stored pools ordered by id.
func (m *Manager) Pools() []Pool {
	return m.registry.All()
}

// Positions returns the stored positions of a pool ordered by participant.
func (m *Manager) Positions(poolID uint64) ([]Position, error) {
	if _, err := m.registry.Get(poolID); err != nil {
		return nil, err
	}
	return m.ledger.ForPool(poolID), nil
}

// CheckInvariants verifies that every pool's total equals the sum of its positions.
func (m *Manager) CheckInvariants() error {
	sums := make([]*uint256.Int, m.registry.Count())
	for i := range sums {
		sums[i] = new(uint256.Int)
	}
	for key, pos := range m.ledger.positions {
		if key.poolID >= uint64(len(sums)) {
			return fmt.Errorf("%w: position %d/%s references unknown pool", ErrInvariantViolation, key.poolID, key.participant.Hex())
		}
		sum, err := fixedpoint.Add(sums[key.poolID], pos.Amount)
		if err != nil {
			return violation("pool %d stake sum", key.poolID, err)
		}
		sums[key.poolID] = sum
	}
	for _, pool := range m.registry.pools {
		if !pool.TotalStaked.Eq(sums[pool.ID]) {
			return fmt.Errorf("%w: pool %d total %s != positions %s",
				ErrInvariantViolation, pool.ID, FormatAmount(pool.TotalStaked), FormatAmount(sums[pool.ID]))
		}
	}
	return nil
}
