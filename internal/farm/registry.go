package farm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Pool is an independently accrued staking pool.
type Pool struct {
	ID                uint64
	StakedAsset       common.Address
	RewardRatePerTick *uint256.Int
	LastAccrualTick   uint64
	AccRewardPerUnit  *uint256.Int
	TotalStaked       *uint256.Int
}

func (p Pool) copy() Pool {
	p.RewardRatePerTick = clone(p.RewardRatePerTick)
	p.AccRewardPerUnit = clone(p.AccRewardPerUnit)
	p.TotalStaked = clone(p.TotalStaked)
	return p
}

// Registry is the ordered pool collection. Ids are slice indexes and are never reused.
type Registry struct {
	pools []Pool
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a new pool starting its accrual at tick and returns its id.
func (r *Registry) Add(stakedAsset common.Address, rate *uint256.Int, tick uint64) uint64 {
	id := uint64(len(r.pools))
	r.pools = append(r.pools, Pool{
		ID:                id,
		StakedAsset:       stakedAsset,
		RewardRatePerTick: clone(rate),
		LastAccrualTick:   tick,
		AccRewardPerUnit:  new(uint256.Int),
		TotalStaked:       new(uint256.Int),
	})
	return id
}

// Get returns a detached copy of the pool.
func (r *Registry) Get(id uint64) (Pool, error) {
	if id >= uint64(len(r.pools)) {
		return Pool{}, fmt.Errorf("pool %d: %w", id, ErrNotFound)
	}
	return r.pools[id].copy(), nil
}

// Count returns the number of pools.
func (r *Registry) Count() int {
	return len(r.pools)
}

// All returns copies of every pool ordered by id.
func (r *Registry) All() []Pool {
	out := make([]Pool, 0, len(r.pools))
	for _, p := range r.pools {
		out = append(out, p.copy())
	}
	return out
}

func (r *Registry) put(p Pool) {
	r.pools[p.ID] = p.copy()
}
