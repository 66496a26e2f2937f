package farm

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"yieldfarm/internal/asset"
	"yieldfarm/internal/model"
)

// Records exports the ledger for persistence. Pools are ordered by id and
// positions by pool then participant.
func (m *Manager) Records() (model.LedgerMeta, []model.PoolRecord, []model.PositionRecord) {
	meta := model.LedgerMeta{
		Admin:       m.cfg.Admin.Hex(),
		Custody:     m.cfg.Custody.Hex(),
		RewardAsset: m.cfg.RewardAsset.Hex(),
		Schedule: model.ScheduleRecord{
			StartTick:       m.cfg.Schedule.StartTick,
			EndTick:         m.cfg.Schedule.EndTick,
			BaseRatePerTick: FormatAmount(m.cfg.Schedule.BaseRatePerTick),
		},
	}

	pools := make([]model.PoolRecord, 0, m.registry.Count())
	positions := make([]model.PositionRecord, 0, m.ledger.Len())
	for _, p := range m.registry.All() {
		pools = append(pools, p.Record())
		for _, pos := range m.ledger.ForPool(p.ID) {
			positions = append(positions, pos.Record())
		}
	}
	return meta, pools, positions
}

// Record converts the pool to its persisted form.
func (p Pool) Record() model.PoolRecord {
	return model.PoolRecord{
		ID:                p.ID,
		StakedAsset:       p.StakedAsset.Hex(),
		RewardRatePerTick: FormatAmount(p.RewardRatePerTick),
		LastAccrualTick:   p.LastAccrualTick,
		AccRewardPerUnit:  FormatAmount(p.AccRewardPerUnit),
		TotalStaked:       FormatAmount(p.TotalStaked),
	}
}

// Record converts the position to its persisted form.
func (pos Position) Record() model.PositionRecord {
	return model.PositionRecord{
		PoolID:        pos.PoolID,
		Participant:   pos.Participant.Hex(),
		Amount:        FormatAmount(pos.Amount),
		RewardDebt:    FormatAmount(pos.RewardDebt),
		PendingReward: FormatAmount(pos.PendingReward),
	}
}

// Snapshot exports the ledger together with the bundled asset ledger.
func (m *Manager) Snapshot(assets *asset.Ledger) model.Snapshot {
	meta, pools, positions := m.Records()
	snap := model.Snapshot{Meta: meta, Pools: pools, Positions: positions}
	if assets != nil {
		snap.Balances, snap.Allowances = assets.Records()
	}
	return snap
}

// ConfigFromMeta parses persisted ledger settings.
func ConfigFromMeta(meta model.LedgerMeta) (Config, error) {
	admin, err := parseAddress("admin", meta.Admin)
	if err != nil {
		return Config{}, err
	}
	custody, err := parseAddress("custody", meta.Custody)
	if err != nil {
		return Config{}, err
	}
	reward, err := parseAddress("reward asset", meta.RewardAsset)
	if err != nil {
		return Config{}, err
	}
	rate, err := ParseAmount(meta.Schedule.BaseRatePerTick)
	if err != nil {
		return Config{}, fmt.Errorf("base rate: %w", err)
	}
	return Config{
		Admin:       admin,
		Custody:     custody,
		RewardAsset: reward,
		Schedule: Schedule{
			StartTick:       meta.Schedule.StartTick,
			EndTick:         meta.Schedule.EndTick,
			BaseRatePerTick: rate,
		},
	}, nil
}

// Restore rebuilds a Manager from persisted records and verifies its invariants.
func Restore(meta model.LedgerMeta, pools []model.PoolRecord, positions []model.PositionRecord,
	assets asset.Store, events EventSink, logger *zap.Logger) (*Manager, error) {
	cfg, err := ConfigFromMeta(meta)
	if err != nil {
		return nil, err
	}
	m, err := NewManager(cfg, assets, events, logger)
	if err != nil {
		return nil, err
	}

	for i, rec := range pools {
		if rec.ID != uint64(i) {
			return nil, fmt.Errorf("%w: pool ids not sequential at %d (got %d)", ErrInvariantViolation, i, rec.ID)
		}
		pool, err := poolFromRecord(rec)
		if err != nil {
			return nil, err
		}
		if pool.StakedAsset == cfg.RewardAsset {
			return nil, fmt.Errorf("%w: pool %d stakes the reward asset", ErrInvariantViolation, pool.ID)
		}
		m.registry.pools = append(m.registry.pools, pool)
	}
	for _, rec := range positions {
		pos, err := positionFromRecord(rec)
		if err != nil {
			return nil, err
		}
		m.ledger.put(pos)
	}

	if err := m.CheckInvariants(); err != nil {
		return nil, err
	}
	return m, nil
}

func poolFromRecord(rec model.PoolRecord) (Pool, error) {
	stakedAsset, err := parseAddress("staked asset", rec.StakedAsset)
	if err != nil {
		return Pool{}, fmt.Errorf("pool %d: %w", rec.ID, err)
	}
	pool := Pool{ID: rec.ID, StakedAsset: stakedAsset, LastAccrualTick: rec.LastAccrualTick}
	if pool.RewardRatePerTick, err = ParseAmount(rec.RewardRatePerTick); err != nil {
		return Pool{}, fmt.Errorf("pool %d rate: %w", rec.ID, err)
	}
	if pool.AccRewardPerUnit, err = ParseAmount(rec.AccRewardPerUnit); err != nil {
		return Pool{}, fmt.Errorf("pool %d accumulator: %w", rec.ID, err)
	}
	if pool.TotalStaked, err = ParseAmount(rec.TotalStaked); err != nil {
		return Pool{}, fmt.Errorf("pool %d total staked: %w", rec.ID, err)
	}
	return pool, nil
}

func positionFromRecord(rec model.PositionRecord) (Position, error) {
	participant, err := parseAddress("participant", rec.Participant)
	if err != nil {
		return Position{}, fmt.Errorf("position %d: %w", rec.PoolID, err)
	}
	pos := Position{PoolID: rec.PoolID, Participant: participant}
	if pos.Amount, err = ParseAmount(rec.Amount); err != nil {
		return Position{}, fmt.Errorf("position %d/%s amount: %w", rec.PoolID, rec.Participant, err)
	}
	if pos.RewardDebt, err = ParseAmount(rec.RewardDebt); err != nil {
		return Position{}, fmt.Errorf("position %d/%s reward debt: %w", rec.PoolID, rec.Participant, err)
	}
	if pos.PendingReward, err = ParseAmount(rec.PendingReward); err != nil {
		return Position{}, fmt.Errorf("position %d/%s pending reward: %w", rec.PoolID, rec.Participant, err)
	}
	return pos, nil
}

func parseAddress(field, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s address: %q", field, value)
	}
	return common.HexToAddress(value), nil
}
