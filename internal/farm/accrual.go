package farm

import (
	"fmt"

	"github.com/holiman/uint256"

	"yieldfarm/internal/fixedpoint"
)

// accrue brings the pool accumulator current to tick. Ticks at or before the last
// accrual are a no-op. An empty pool only moves its marker forward, so stake that
// arrives later is not owed reward for the idle ticks.
func accrue(pool *Pool, sched Schedule, tick uint64) error {
	if tick <= pool.LastAccrualTick {
		return nil
	}
	if pool.TotalStaked.IsZero() {
		pool.LastAccrualTick = tick
		return nil
	}

	active := sched.ActiveTicks(pool.LastAccrualTick, tick)
	if active > 0 && !pool.RewardRatePerTick.IsZero() {
		reward, err := fixedpoint.Mul(uint256.NewInt(active), pool.RewardRatePerTick)
		if err != nil {
			return violation("pool %d reward", pool.ID, err)
		}
		delta, err := fixedpoint.Rate(reward, pool.TotalStaked)
		if err != nil {
			return violation("pool %d rate", pool.ID, err)
		}
		acc, err := fixedpoint.Add(pool.AccRewardPerUnit, delta)
		if err != nil {
			return violation("pool %d accumulator", pool.ID, err)
		}
		pool.AccRewardPerUnit = acc
	}
	pool.LastAccrualTick = tick
	return nil
}

// settle credits the reward the position earned since its last checkpoint. The
// caller must checkpoint after any amount change.
func settle(pos *Position, pool *Pool) error {
	earned, err := fixedpoint.Mul(pos.Amount, pool.AccRewardPerUnit)
	if err != nil {
		return violation("pool %d settle", pool.ID, err)
	}
	owedScaled, err := fixedpoint.Sub(earned, pos.RewardDebt)
	if err != nil {
		return violation("pool %d reward debt", pool.ID, err)
	}
	pending, err := fixedpoint.Add(pos.PendingReward, fixedpoint.Descale(owedScaled))
	if err != nil {
		return violation("pool %d pending reward", pool.ID, err)
	}
	pos.PendingReward = pending
	return nil
}

// checkpoint snapshots amount × accumulator so the next settlement only sees new accrual.
func checkpoint(pos *Position, pool *Pool) error {
	debt, err := fixedpoint.Mul(pos.Amount, pool.AccRewardPerUnit)
	if err != nil {
		return violation("pool %d checkpoint", pool.ID, err)
	}
	pos.RewardDebt = debt
	return nil
}

func violation(format string, poolID uint64, err error) error {
	return fmt.Errorf("%w: "+format+": %v", ErrInvariantViolation, poolID, err)
}
