package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"yieldfarm/internal/model"
)

const (
	alice = "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa"
	token = "0x2000000000000000000000000000000000000004"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("FARM_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("FARM_TEST_PG_DSN not set")
	}

	ctx := context.Background()
	store, err := NewStore(ctx, dsn, Options{MaxRetries: 1, RetryBackoff: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := store.pool.Exec(ctx, `TRUNCATE farm_positions, farm_pools, farm_balances, farm_allowances, farm_meta`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return store
}

func TestSaveLoad(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, found, err := store.Load(ctx); err != nil || found {
		t.Fatalf("expected empty ledger, found=%v err=%v", found, err)
	}

	snap := model.Snapshot{
		Meta: model.LedgerMeta{
			Admin:       "0xAd00000000000000000000000000000000000001",
			Custody:     "0xC000000000000000000000000000000000000002",
			RewardAsset: "0x1000000000000000000000000000000000000003",
			Schedule:    model.ScheduleRecord{StartTick: 3, EndTick: 18446744073709551615, BaseRatePerTick: "1000000000000000000"},
		},
		Pools: []model.PoolRecord{{
			ID:                0,
			StakedAsset:       token,
			RewardRatePerTick: "1000000000000000000",
			LastAccrualTick:   99,
			AccRewardPerUnit:  "115792089237316195423570985008687907853269984665640564039457584007913129639935",
			TotalStaked:       "10",
		}},
		Positions: []model.PositionRecord{{PoolID: 0, Participant: alice, Amount: "10", RewardDebt: "0", PendingReward: "12"}},
		Balances:  []model.BalanceRecord{{Token: token, Holder: alice, Amount: "5"}},
	}
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, found, err := store.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if got.Meta != snap.Meta {
		t.Fatalf("meta mismatch: %+v", got.Meta)
	}
	if len(got.Pools) != 1 || got.Pools[0] != snap.Pools[0] {
		t.Fatalf("pool mismatch: %+v", got.Pools)
	}
	if len(got.Positions) != 1 || got.Positions[0] != snap.Positions[0] {
		t.Fatalf("position mismatch: %+v", got.Positions)
	}

	snap.Balances = nil
	snap.Positions[0].PendingReward = "0"
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, _, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(got.Balances) != 0 || got.Positions[0].PendingReward != "0" {
		t.Fatalf("second save not applied: %+v", got)
	}
}

func TestSaveIsAtomic(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	snap := model.Snapshot{
		Meta: model.LedgerMeta{Admin: "a", Custody: "c", RewardAsset: "r", Schedule: model.ScheduleRecord{BaseRatePerTick: "1"}},
		// position references a pool that is never written
		Positions: []model.PositionRecord{{PoolID: 4, Participant: alice, Amount: "1", RewardDebt: "0", PendingReward: "0"}},
	}
	if err := store.Save(ctx, snap); err == nil {
		t.Fatalf("expected foreign key failure")
	}
	if _, found, err := store.Load(ctx); err != nil || found {
		t.Fatalf("failed save leaked state: found=%v err=%v", found, err)
	}
}

func TestNewStoreRequiresDSN(t *testing.T) {
	if _, err := NewStore(context.Background(), "", Options{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 2, time.Millisecond, zap.NewNop(), "test", func(context.Context) error {
		calls++
		return context.DeadlineExceeded
	})
	if err == nil || calls != 3 {
		t.Fatalf("expected 3 attempts and an error, got %d (%v)", calls, err)
	}
}

func TestWithRetryRecovers(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), 5, time.Millisecond, zap.NewNop(), "test", func(context.Context) error {
		calls++
		if calls < 3 {
			return context.DeadlineExceeded
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third attempt, got %d (%v)", calls, err)
	}
}
