package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"yieldfarm/internal/model"
)

const (
	alice = "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa"
	bob   = "0xbBbBBBBBbbBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"
	token = "0x2000000000000000000000000000000000000004"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "farm.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func snapshot() model.Snapshot {
	return model.Snapshot{
		Meta: model.LedgerMeta{
			Admin:       "0xAd00000000000000000000000000000000000001",
			Custody:     "0xC000000000000000000000000000000000000002",
			RewardAsset: "0x1000000000000000000000000000000000000003",
			Schedule:    model.ScheduleRecord{StartTick: 0, EndTick: 18446744073709551615, BaseRatePerTick: "1"},
		},
		Pools: []model.PoolRecord{
			{ID: 0, StakedAsset: token, RewardRatePerTick: "1", LastAccrualTick: 5, AccRewardPerUnit: "0", TotalStaked: "15"},
			{ID: 1, StakedAsset: token, RewardRatePerTick: "2", LastAccrualTick: 9, AccRewardPerUnit: "0", TotalStaked: "4"},
		},
		Positions: []model.PositionRecord{
			{PoolID: 0, Participant: alice, Amount: "10", RewardDebt: "0", PendingReward: "0"},
			{PoolID: 0, Participant: bob, Amount: "5", RewardDebt: "0", PendingReward: "0"},
			{PoolID: 1, Participant: alice, Amount: "4", RewardDebt: "0", PendingReward: "3"},
		},
		Balances: []model.BalanceRecord{
			{Token: token, Holder: alice, Amount: "90"},
		},
		Allowances: []model.AllowanceRecord{
			{Token: token, Owner: alice, Spender: bob, Amount: "1"},
		},
	}
}

func TestEmptyStore(t *testing.T) {
	store := openTemp(t)
	_, found, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatalf("expected empty store")
	}
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	store := openTemp(t)
	want := snapshot()

	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, found, err := store.Load(ctx)
	if err != nil || !found {
		t.Fatalf("load: found=%v err=%v", found, err)
	}
	if got.Meta != want.Meta {
		t.Fatalf("meta mismatch: %+v", got.Meta)
	}
	if len(got.Pools) != 2 || got.Pools[1] != want.Pools[1] {
		t.Fatalf("pools mismatch: %+v", got.Pools)
	}
	if len(got.Positions) != 3 {
		t.Fatalf("positions mismatch: %+v", got.Positions)
	}
	// keys sort by pool id first
	if got.Positions[2] != want.Positions[2] {
		t.Fatalf("position order mismatch: %+v", got.Positions)
	}
	if got.UpdatedAt == "" {
		t.Fatalf("updated_at not set")
	}
}

func TestSaveReplacesBalances(t *testing.T) {
	ctx := context.Background()
	store := openTemp(t)
	snap := snapshot()
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap.Balances = []model.BalanceRecord{{Token: token, Holder: bob, Amount: "7"}}
	snap.Allowances = nil
	if err := store.Save(ctx, snap); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, _, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Balances) != 1 || got.Balances[0].Amount != "7" {
		t.Fatalf("balances not replaced: %+v", got.Balances)
	}
	if len(got.Allowances) != 0 {
		t.Fatalf("allowances not cleared: %+v", got.Allowances)
	}
}

func TestSaveRejectsBadAddress(t *testing.T) {
	ctx := context.Background()
	store := openTemp(t)
	snap := snapshot()
	snap.Positions[0].Participant = "alice"
	if err := store.Save(ctx, snap); err == nil {
		t.Fatalf("expected error")
	}
	if _, found, _ := store.Load(ctx); found {
		t.Fatalf("failed save must not be visible")
	}
}
