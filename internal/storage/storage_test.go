package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"yieldfarm/internal/model"
)

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		Meta: model.LedgerMeta{
			Admin:       "0xAd00000000000000000000000000000000000001",
			Custody:     "0xC000000000000000000000000000000000000002",
			RewardAsset: "0x1000000000000000000000000000000000000003",
			Schedule:    model.ScheduleRecord{StartTick: 10, EndTick: 100, BaseRatePerTick: "5"},
		},
		Pools: []model.PoolRecord{{
			ID:                0,
			StakedAsset:       "0x2000000000000000000000000000000000000004",
			RewardRatePerTick: "5",
			LastAccrualTick:   42,
			AccRewardPerUnit:  "3000000000000",
			TotalStaked:       "10",
		}},
		Positions: []model.PositionRecord{{
			PoolID:        0,
			Participant:   "0xaAaAaAaaAaAaAaaAaAAAAAAAAaaaAaAaAaaAaaAa",
			Amount:        "10",
			RewardDebt:    "30000000000000",
			PendingReward: "7",
		}},
		Balances:   []model.BalanceRecord{{Token: "0x1000000000000000000000000000000000000003", Holder: "0xC000000000000000000000000000000000000002", Amount: "1000"}},
		Allowances: []model.AllowanceRecord{},
	}
}

func TestFileStoreMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	_, found, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatalf("expected no snapshot")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := NewFileStore(path)

	want := sampleSnapshot()
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("tmp file left behind: %v", err)
	}

	got, found, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatalf("expected snapshot")
	}
	if got.UpdatedAt == "" {
		t.Fatalf("updated_at not set")
	}
	got.UpdatedAt = ""
	if got.Meta != want.Meta || got.Pools[0] != want.Pools[0] || got.Positions[0] != want.Positions[0] || got.Balances[0] != want.Balances[0] {
		t.Fatalf("snapshot mismatch: %+v != %+v", got, want)
	}
}

func TestFileStoreRejectsDirectory(t *testing.T) {
	store := NewFileStore(t.TempDir())
	if _, _, err := store.Load(context.Background()); err == nil {
		t.Fatalf("expected error for directory path")
	}
}

func TestJsonlEventLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	log := NewJsonlEventLog(path)

	if err := log.PutEventBatch(nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("empty batch should not create the file")
	}

	first := []model.EventRecord{{Kind: "pool_added", PoolID: 0, Amount: "5", Tick: 1}}
	second := []model.EventRecord{
		{Kind: "deposit", PoolID: 0, Participant: "0xaa", Amount: "10", Tick: 2},
		{Kind: "claim", PoolID: 0, Participant: "0xaa", Amount: "3", Tick: 9},
	}
	if err := log.PutEventBatch(first); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	if err := log.PutEventBatch(second); err != nil {
		t.Fatalf("second batch: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	var kinds []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var rec model.EventRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		kinds = append(kinds, rec.Kind)
	}
	if len(kinds) != 3 || kinds[0] != "pool_added" || kinds[2] != "claim" {
		t.Fatalf("unexpected events: %v", kinds)
	}
}
