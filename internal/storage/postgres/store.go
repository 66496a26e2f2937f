package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"yieldfarm/internal/model"
)

//go:embed schema.sql
var schema string

// Options tunes the connection.
type Options struct {
	MaxRetries   int
	RetryBackoff time.Duration
	Logger       *zap.Logger
}

// Store provides Postgres persistence for the ledger.
type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewStore connects to dsn, retrying with exponential backoff until the server answers a ping.
func NewStore(ctx context.Context, dsn string, opts Options) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var pool *pgxpool.Pool
	err := withRetry(ctx, opts.MaxRetries, opts.RetryBackoff, logger, "connect", func(ctx context.Context) error {
		p, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Migrate creates the ledger tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Load reads the full ledger. found is false until the meta row exists.
func (s *Store) Load(ctx context.Context) (model.Snapshot, bool, error) {
	var (
		snap       model.Snapshot
		start, end string
		updatedAt  time.Time
	)
	row := s.pool.QueryRow(ctx, `
		SELECT admin, custody, reward_asset, start_tick::text, end_tick::text, base_rate_per_tick::text, updated_at
		FROM farm_meta WHERE id = 1
	`)
	err := row.Scan(&snap.Meta.Admin, &snap.Meta.Custody, &snap.Meta.RewardAsset, &start, &end,
		&snap.Meta.Schedule.BaseRatePerTick, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, fmt.Errorf("load meta: %w", err)
	}
	if snap.Meta.Schedule.StartTick, err = strconv.ParseUint(start, 10, 64); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("parse start tick: %w", err)
	}
	if snap.Meta.Schedule.EndTick, err = strconv.ParseUint(end, 10, 64); err != nil {
		return model.Snapshot{}, false, fmt.Errorf("parse end tick: %w", err)
	}
	snap.UpdatedAt = updatedAt.UTC().Format(time.RFC3339Nano)

	if snap.Pools, err = s.loadPools(ctx); err != nil {
		return model.Snapshot{}, false, err
	}
	if snap.Positions, err = s.loadPositions(ctx); err != nil {
		return model.Snapshot{}, false, err
	}

	rows, err := s.pool.Query(ctx, `SELECT token, holder, amount::text FROM farm_balances ORDER BY token, holder`)
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("load balances: %w", err)
	}
	snap.Balances, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.BalanceRecord, error) {
		var rec model.BalanceRecord
		err := row.Scan(&rec.Token, &rec.Holder, &rec.Amount)
		return rec, err
	})
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("scan balances: %w", err)
	}

	rows, err = s.pool.Query(ctx, `SELECT token, owner, spender, amount::text FROM farm_allowances ORDER BY token, owner, spender`)
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("load allowances: %w", err)
	}
	snap.Allowances, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.AllowanceRecord, error) {
		var rec model.AllowanceRecord
		err := row.Scan(&rec.Token, &rec.Owner, &rec.Spender, &rec.Amount)
		return rec, err
	})
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("scan allowances: %w", err)
	}

	return snap, true, nil
}

func (s *Store) loadPools(ctx context.Context) ([]model.PoolRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, staked_asset, reward_rate_per_tick::text, last_accrual_tick::text,
			acc_reward_per_unit::text, total_staked::text
		FROM farm_pools ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("load pools: %w", err)
	}
	pools, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PoolRecord, error) {
		var (
			rec      model.PoolRecord
			id, last string
		)
		if err := row.Scan(&id, &rec.StakedAsset, &rec.RewardRatePerTick, &last, &rec.AccRewardPerUnit, &rec.TotalStaked); err != nil {
			return rec, err
		}
		var err error
		if rec.ID, err = strconv.ParseUint(id, 10, 64); err != nil {
			return rec, fmt.Errorf("pool id %q: %w", id, err)
		}
		if rec.LastAccrualTick, err = strconv.ParseUint(last, 10, 64); err != nil {
			return rec, fmt.Errorf("pool %s last accrual tick %q: %w", id, last, err)
		}
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan pools: %w", err)
	}
	return pools, nil
}

func (s *Store) loadPositions(ctx context.Context) ([]model.PositionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT pool_id::text, participant, amount::text, reward_debt::text, pending_reward::text
		FROM farm_positions ORDER BY pool_id, participant
	`)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	positions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PositionRecord, error) {
		var (
			rec model.PositionRecord
			id  string
		)
		if err := row.Scan(&id, &rec.Participant, &rec.Amount, &rec.RewardDebt, &rec.PendingReward); err != nil {
			return rec, err
		}
		var err error
		if rec.PoolID, err = strconv.ParseUint(id, 10, 64); err != nil {
			return rec, fmt.Errorf("position pool id %q: %w", id, err)
		}
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan positions: %w", err)
	}
	return positions, nil
}

// Save writes the snapshot in one transaction. Pools and positions are
// upserted; balances and allowances are replaced.
func (s *Store) Save(ctx context.Context, snap model.Snapshot) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO farm_meta (id, admin, custody, reward_asset, start_tick, end_tick, base_rate_per_tick, updated_at)
			VALUES (1, $1, $2, $3, $4, $5, $6, now())
			ON CONFLICT (id)
			DO UPDATE SET
				admin = EXCLUDED.admin,
				custody = EXCLUDED.custody,
				reward_asset = EXCLUDED.reward_asset,
				start_tick = EXCLUDED.start_tick,
				end_tick = EXCLUDED.end_tick,
				base_rate_per_tick = EXCLUDED.base_rate_per_tick,
				updated_at = now()
		`,
			snap.Meta.Admin,
			snap.Meta.Custody,
			snap.Meta.RewardAsset,
			strconv.FormatUint(snap.Meta.Schedule.StartTick, 10),
			strconv.FormatUint(snap.Meta.Schedule.EndTick, 10),
			snap.Meta.Schedule.BaseRatePerTick,
		)
		if err != nil {
			return fmt.Errorf("upsert meta: %w", err)
		}

		batch := &pgx.Batch{}
		for _, p := range snap.Pools {
			batch.Queue(`
				INSERT INTO farm_pools (
					id, staked_asset, reward_rate_per_tick, last_accrual_tick, acc_reward_per_unit, total_staked, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, now(), now())
				ON CONFLICT (id)
				DO UPDATE SET
					reward_rate_per_tick = EXCLUDED.reward_rate_per_tick,
					last_accrual_tick = EXCLUDED.last_accrual_tick,
					acc_reward_per_unit = EXCLUDED.acc_reward_per_unit,
					total_staked = EXCLUDED.total_staked,
					updated_at = now()
			`,
				strconv.FormatUint(p.ID, 10),
				p.StakedAsset,
				p.RewardRatePerTick,
				strconv.FormatUint(p.LastAccrualTick, 10),
				p.AccRewardPerUnit,
				p.TotalStaked,
			)
		}
		for _, p := range snap.Positions {
			batch.Queue(`
				INSERT INTO farm_positions (
					pool_id, participant, amount, reward_debt, pending_reward, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, now(), now())
				ON CONFLICT (pool_id, participant)
				DO UPDATE SET
					amount = EXCLUDED.amount,
					reward_debt = EXCLUDED.reward_debt,
					pending_reward = EXCLUDED.pending_reward,
					updated_at = now()
			`,
				strconv.FormatUint(p.PoolID, 10),
				p.Participant,
				p.Amount,
				p.RewardDebt,
				p.PendingReward,
			)
		}
		batch.Queue(`DELETE FROM farm_balances`)
		for _, b := range snap.Balances {
			batch.Queue(`INSERT INTO farm_balances (token, holder, amount) VALUES ($1, $2, $3)`, b.Token, b.Holder, b.Amount)
		}
		batch.Queue(`DELETE FROM farm_allowances`)
		for _, a := range snap.Allowances {
			batch.Queue(`INSERT INTO farm_allowances (token, owner, spender, amount) VALUES ($1, $2, $3, $4)`,
				a.Token, a.Owner, a.Spender, a.Amount)
		}

		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("save batch statement %d: %w", i, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close batch: %w", err)
		}

		s.logger.Debug("ledger saved",
			zap.Int("pools", len(snap.Pools)),
			zap.Int("positions", len(snap.Positions)),
			zap.Int("balances", len(snap.Balances)),
		)
		return nil
	})
}
