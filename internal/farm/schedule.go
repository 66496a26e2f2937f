package farm

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

// Schedule is the global emission window. Both ends are inclusive.
type Schedule struct {
	StartTick       uint64
	EndTick         uint64
	BaseRatePerTick *uint256.Int
}

// Validate checks that the window is well formed.
func (s Schedule) Validate() error {
	if s.StartTick > s.EndTick {
		return fmt.Errorf("%w: start tick %d after end tick %d", ErrInvalidSchedule, s.StartTick, s.EndTick)
	}
	if s.BaseRatePerTick == nil {
		return fmt.Errorf("%w: base rate is required", ErrInvalidSchedule)
	}
	return nil
}

// RateAt returns the base rate when tick falls inside the window, zero otherwise.
func (s Schedule) RateAt(tick uint64) *uint256.Int {
	if tick < s.StartTick || tick > s.EndTick {
		return new(uint256.Int)
	}
	return clone(s.BaseRatePerTick)
}

// ActiveTicks counts the ticks t with from <= t < to that fall inside the window.
func (s Schedule) ActiveTicks(from, to uint64) uint64 {
	lo := from
	if s.StartTick > lo {
		lo = s.StartTick
	}
	hi := to
	if s.EndTick < math.MaxUint64 && s.EndTick+1 < hi {
		hi = s.EndTick + 1
	}
	if hi <= lo {
		return 0
	}
	return hi - lo
}

func (s Schedule) copy() Schedule {
	s.BaseRatePerTick = clone(s.BaseRatePerTick)
	return s
}
