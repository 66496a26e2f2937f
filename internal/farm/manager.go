package farm

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"yieldfarm/internal/asset"
	"yieldfarm/internal/fixedpoint"
)

// Call carries the identity and tick the environment supplies with every operation.
type Call struct {
	Caller common.Address
	Tick   uint64
}

// Config holds the genesis settings of a Manager.
type Config struct {
	Admin       common.Address
	Custody     common.Address
	RewardAsset common.Address
	Schedule    Schedule
}

// Manager is the public face of the ledger. It is not safe for concurrent use;
// the host serializes calls. Every mutating call either commits in full or
// leaves state untouched.
type Manager struct {
	cfg      Config
	registry *Registry
	ledger   *StakeLedger
	assets   asset.Store
	events   EventSink
	logger   *zap.Logger
	busy     bool
}

// NewManager builds an empty ledger.
func NewManager(cfg Config, assets asset.Store, events EventSink, logger *zap.Logger) (*Manager, error) {
	if err := cfg.Schedule.Validate(); err != nil {
		return nil, err
	}
	if assets == nil {
		return nil, fmt.Errorf("asset store is nil")
	}
	if events == nil {
		events = nopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg.Schedule = cfg.Schedule.copy()
	return &Manager{
		cfg:      cfg,
		registry: NewRegistry(),
		ledger:   NewStakeLedger(),
		assets:   assets,
		events:   events,
		logger:   logger,
	}, nil
}

// Admin returns the administrator address.
func (m *Manager) Admin() common.Address { return m.cfg.Admin }

// Custody returns the account holding staked assets and reward funds.
func (m *Manager) Custody() common.Address { return m.cfg.Custody }

// RewardAsset returns the token rewards are paid in.
func (m *Manager) RewardAsset() common.Address { return m.cfg.RewardAsset }

// Schedule returns the current emission schedule.
func (m *Manager) Schedule() Schedule { return m.cfg.Schedule.copy() }

func (m *Manager) enter() error {
	if m.busy {
		return ErrReentrant
	}
	m.busy = true
	return nil
}

func (m *Manager) exit() {
	m.busy = false
}

// requireParticipant keeps the custody account from staking or claiming
// against balances it already holds for others.
func (m *Manager) requireParticipant(call Call) error {
	if call.Caller == m.cfg.Custody {
		return fmt.Errorf("custody account %s cannot stake: %w", call.Caller.Hex(), ErrUnauthorized)
	}
	return nil
}

func (m *Manager) requireAdmin(call Call) error {
	if call.Caller != m.cfg.Admin {
		return fmt.Errorf("%s is not the administrator: %w", call.Caller.Hex(), ErrUnauthorized)
	}
	return nil
}

// AddPool registers a pool for stakedAsset. A nil rate inherits the schedule's base rate.
func (m *Manager) AddPool(call Call, stakedAsset common.Address, rate *uint256.Int) (uint64, error) {
	if err := m.enter(); err != nil {
		return 0, err
	}
	defer m.exit()

	if err := m.requireAdmin(call); err != nil {
		m.logger.Debug("add pool rejected", zap.String("caller", call.Caller.Hex()), zap.Error(err))
		return 0, err
	}
	if stakedAsset == m.cfg.RewardAsset {
		return 0, fmt.Errorf("staked asset %s is the reward asset: %w", stakedAsset.Hex(), ErrInvalidAsset)
	}
	if rate == nil {
		rate = m.cfg.Schedule.BaseRatePerTick
	}

	id := m.registry.Add(stakedAsset, rate, call.Tick)
	m.emit(Event{Kind: EventPoolAdded, PoolID: id, Asset: stakedAsset, Amount: clone(rate), Tick: call.Tick})
	m.logger.Info("pool added",
		zap.Uint64("pool", id),
		zap.String("asset", stakedAsset.Hex()),
		zap.String("rate", FormatAmount(rate)),
		zap.Uint64("tick", call.Tick),
	)
	return id, nil
}

// SetPoolRate accrues the pool at its old rate up to the call tick, then switches rates.
func (m *Manager) SetPoolRate(call Call, poolID uint64, rate *uint256.Int) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.exit()

	if err := m.requireAdmin(call); err != nil {
		return err
	}
	if rate == nil {
		return fmt.Errorf("%w: rate is required", ErrInvalidAmount)
	}
	pool, err := m.registry.Get(poolID)
	if err != nil {
		return err
	}
	if err := accrue(&pool, m.cfg.Schedule, call.Tick); err != nil {
		return err
	}
	pool.RewardRatePerTick = clone(rate)

	m.registry.put(pool)
	m.emit(Event{Kind: EventPoolRateChanged, PoolID: poolID, Amount: clone(rate), Tick: call.Tick})
	m.logger.Info("pool rate changed", zap.Uint64("pool", poolID), zap.String("rate", FormatAmount(rate)), zap.Uint64("tick", call.Tick))
	return nil
}

// SetSchedule brings every pool current under the old schedule, then replaces it.
func (m *Manager) SetSchedule(call Call, sched Schedule) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.exit()

	if err := m.requireAdmin(call); err != nil {
		return err
	}
	if err := sched.Validate(); err != nil {
		return err
	}
	pools := m.registry.All()
	for i := range pools {
		if err := accrue(&pools[i], m.cfg.Schedule, call.Tick); err != nil {
			return err
		}
	}

	for _, p := range pools {
		m.registry.put(p)
	}
	m.cfg.Schedule = sched.copy()
	m.emit(Event{Kind: EventScheduleChanged, Amount: clone(sched.BaseRatePerTick), Tick: call.Tick})
	m.logger.Info("schedule changed",
		zap.Uint64("start", sched.StartTick),
		zap.Uint64("end", sched.EndTick),
		zap.String("base_rate", FormatAmount(sched.BaseRatePerTick)),
	)
	return nil
}

// Deposit stakes amount of the pool's asset from the caller.
func (m *Manager) Deposit(ctx context.Context, call Call, poolID uint64, amount *uint256.Int) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.exit()

	if err := m.requireParticipant(call); err != nil {
		return err
	}

	if amount == nil || amount.IsZero() {
		return fmt.Errorf("deposit: %w", ErrInvalidAmount)
	}
	pool, err := m.registry.Get(poolID)
	if err != nil {
		return err
	}
	pos := m.ledger.getOrEmpty(poolID, call.Caller)

	if err := accrue(&pool, m.cfg.Schedule, call.Tick); err != nil {
		return err
	}
	if err := settle(&pos, &pool); err != nil {
		return err
	}
	if pos.Amount, err = fixedpoint.Add(pos.Amount, amount); err != nil {
		return violation("pool %d position amount", poolID, err)
	}
	if pool.TotalStaked, err = fixedpoint.Add(pool.TotalStaked, amount); err != nil {
		return violation("pool %d total staked", poolID, err)
	}
	if err := checkpoint(&pos, &pool); err != nil {
		return err
	}

	if err := m.assets.TransferFrom(ctx, pool.StakedAsset, m.cfg.Custody, call.Caller, m.cfg.Custody, amount); err != nil {
		m.logger.Debug("deposit transfer failed", zap.Uint64("pool", poolID), zap.String("caller", call.Caller.Hex()), zap.Error(err))
		return err
	}

	m.commit(pool, pos)
	m.emit(Event{Kind: EventDeposit, PoolID: poolID, Participant: call.Caller, Asset: pool.StakedAsset, Amount: clone(amount), Tick: call.Tick})
	m.logger.Info("deposit",
		zap.Uint64("pool", poolID),
		zap.String("participant", call.Caller.Hex()),
		zap.String("amount", FormatAmount(amount)),
		zap.Uint64("tick", call.Tick),
	)
	return nil
}

// Withdraw returns amount of staked asset to the caller. A zero amount only settles.
func (m *Manager) Withdraw(ctx context.Context, call Call, poolID uint64, amount *uint256.Int) error {
	if err := m.enter(); err != nil {
		return err
	}
	defer m.exit()

	if err := m.requireParticipant(call); err != nil {
		return err
	}

	if amount == nil {
		return fmt.Errorf("withdraw: %w", ErrInvalidAmount)
	}
	pool, err := m.registry.Get(poolID)
	if err != nil {
		return err
	}
	pos, ok := m.ledger.Get(poolID, call.Caller)
	if !ok {
		return fmt.Errorf("position %d/%s: %w", poolID, call.Caller.Hex(), ErrNotFound)
	}
	if amount.Gt(pos.Amount) {
		return fmt.Errorf("withdraw %s of %s: %w", FormatAmount(amount), FormatAmount(pos.Amount), ErrInsufficientStake)
	}

	if err := accrue(&pool, m.cfg.Schedule, call.Tick); err != nil {
		return err
	}
	if err := settle(&pos, &pool); err != nil {
		return err
	}
	if pos.Amount, err = fixedpoint.Sub(pos.Amount, amount); err != nil {
		return violation("pool %d position amount", poolID, err)
	}
	if pool.TotalStaked, err = fixedpoint.Sub(pool.TotalStaked, amount); err != nil {
		return violation("pool %d total staked", poolID, err)
	}
	if err := checkpoint(&pos, &pool); err != nil {
		return err
	}

	if !amount.IsZero() {
		if err := m.assets.Transfer(ctx, pool.StakedAsset, m.cfg.Custody, call.Caller, amount); err != nil {
			m.logger.Debug("withdraw transfer failed", zap.Uint64("pool", poolID), zap.String("caller", call.Caller.Hex()), zap.Error(err))
			return err
		}
	}

	m.commit(pool, pos)
	m.emit(Event{Kind: EventWithdraw, PoolID: poolID, Participant: call.Caller, Asset: pool.StakedAsset, Amount: clone(amount), Tick: call.Tick})
	m.logger.Info("withdraw",
		zap.Uint64("pool", poolID),
		zap.String("participant", call.Caller.Hex()),
		zap.String("amount", FormatAmount(amount)),
		zap.Uint64("tick", call.Tick),
	)
	return nil
}

// Claim pays out the caller's pending reward and returns the amount paid.
// Nothing pending is not an error.
func (m *Manager) Claim(ctx context.Context, call Call, poolID uint64) (*uint256.Int, error) {
	if err := m.enter(); err != nil {
		return nil, err
	}
	defer m.exit()

	if err := m.requireParticipant(call); err != nil {
		return nil, err
	}

	pool, err := m.registry.Get(poolID)
	if err != nil {
		return nil, err
	}
	pos, ok := m.ledger.Get(poolID, call.Caller)
	if !ok {
		return nil, fmt.Errorf("position %d/%s: %w", poolID, call.Caller.Hex(), ErrNotFound)
	}

	if err := accrue(&pool, m.cfg.Schedule, call.Tick); err != nil {
		return nil, err
	}
	if err := settle(&pos, &pool); err != nil {
		return nil, err
	}
	if err := checkpoint(&pos, &pool); err != nil {
		return nil, err
	}

	payout := pos.PendingReward
	if payout.IsZero() {
		m.commit(pool, pos)
		return new(uint256.Int), nil
	}
	pos.PendingReward = new(uint256.Int)

	if err := m.assets.Transfer(ctx, m.cfg.RewardAsset, m.cfg.Custody, call.Caller, payout); err != nil {
		m.logger.Warn("reward payout failed", zap.Uint64("pool", poolID), zap.String("caller", call.Caller.Hex()), zap.Error(err))
		return nil, err
	}

	m.commit(pool, pos)
	m.emit(Event{Kind: EventClaim, PoolID: poolID, Participant: call.Caller, Asset: m.cfg.RewardAsset, Amount: clone(payout), Tick: call.Tick})
	m.logger.Info("claim",
		zap.Uint64("pool", poolID),
		zap.String("participant", call.Caller.Hex()),
		zap.String("amount", FormatAmount(payout)),
		zap.Uint64("tick", call.Tick),
	)
	return payout, nil
}

func (m *Manager) commit(pool Pool, pos Position) {
	m.registry.put(pool)
	m.ledger.put(pos)
}

func (m *Manager) emit(e Event) {
	m.events.Emit(e)
}
