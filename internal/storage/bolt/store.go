package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	bbolt "go.etcd.io/bbolt"

	"yieldfarm/internal/model"
)

const fileMode = 0o600

var (
	metaBucket       = []byte("meta")
	poolsBucket      = []byte("pools")
	positionsBucket  = []byte("positions")
	balancesBucket   = []byte("balances")
	allowancesBucket = []byte("allowances")

	metaKey      = []byte("ledger")
	updatedAtKey = []byte("updated_at")
)

// Store keeps the ledger in bbolt buckets, one record per key.
// Pools are keyed by big-endian id and positions by id‖participant, so
// iteration order matches the ledger's own export order.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create bolt dir: %w", err)
		}
	}
	db, err := bbolt.Open(path, fileMode, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{metaBucket, poolsBucket, positionsBucket, balancesBucket, allowancesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Load reads every bucket in one read transaction.
func (s *Store) Load(ctx context.Context) (model.Snapshot, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, false, err
	}

	var (
		snap  model.Snapshot
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		raw := meta.Get(metaKey)
		if raw == nil {
			return nil
		}
		found = true
		if err := json.Unmarshal(raw, &snap.Meta); err != nil {
			return fmt.Errorf("decode meta: %w", err)
		}
		snap.UpdatedAt = string(meta.Get(updatedAtKey))

		if err := tx.Bucket(poolsBucket).ForEach(func(_, v []byte) error {
			var rec model.PoolRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode pool: %w", err)
			}
			snap.Pools = append(snap.Pools, rec)
			return nil
		}); err != nil {
			return err
		}
		if err := tx.Bucket(positionsBucket).ForEach(func(_, v []byte) error {
			var rec model.PositionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode position: %w", err)
			}
			snap.Positions = append(snap.Positions, rec)
			return nil
		}); err != nil {
			return err
		}
		if err := tx.Bucket(balancesBucket).ForEach(func(_, v []byte) error {
			var rec model.BalanceRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode balance: %w", err)
			}
			snap.Balances = append(snap.Balances, rec)
			return nil
		}); err != nil {
			return err
		}
		return tx.Bucket(allowancesBucket).ForEach(func(_, v []byte) error {
			var rec model.AllowanceRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode allowance: %w", err)
			}
			snap.Allowances = append(snap.Allowances, rec)
			return nil
		})
	})
	if err != nil {
		return model.Snapshot{}, false, err
	}
	return snap, found, nil
}

// Save writes the snapshot in a single read-write transaction. Pools and
// positions are upserted; balances and allowances are rewritten.
func (s *Store) Save(ctx context.Context, snap model.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		if err := putJSON(meta, metaKey, snap.Meta); err != nil {
			return err
		}
		if err := meta.Put(updatedAtKey, []byte(time.Now().UTC().Format(time.RFC3339Nano))); err != nil {
			return err
		}

		pools := tx.Bucket(poolsBucket)
		for _, rec := range snap.Pools {
			if err := putJSON(pools, poolKey(rec.ID), rec); err != nil {
				return err
			}
		}
		positions := tx.Bucket(positionsBucket)
		for _, rec := range snap.Positions {
			key, err := positionKey(rec.PoolID, rec.Participant)
			if err != nil {
				return err
			}
			if err := putJSON(positions, key, rec); err != nil {
				return err
			}
		}

		balances, err := resetBucket(tx, balancesBucket)
		if err != nil {
			return err
		}
		for _, rec := range snap.Balances {
			key, err := addressKey(rec.Token, rec.Holder)
			if err != nil {
				return err
			}
			if err := putJSON(balances, key, rec); err != nil {
				return err
			}
		}
		allowances, err := resetBucket(tx, allowancesBucket)
		if err != nil {
			return err
		}
		for _, rec := range snap.Allowances {
			key, err := addressKey(rec.Token, rec.Owner, rec.Spender)
			if err != nil {
				return err
			}
			if err := putJSON(allowances, key, rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func putJSON(b *bbolt.Bucket, key []byte, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %T: %w", value, err)
	}
	return b.Put(key, data)
}

func resetBucket(tx *bbolt.Tx, name []byte) (*bbolt.Bucket, error) {
	if err := tx.DeleteBucket(name); err != nil && err != bbolt.ErrBucketNotFound {
		return nil, fmt.Errorf("clear bucket %s: %w", name, err)
	}
	return tx.CreateBucket(name)
}

func poolKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}

func positionKey(poolID uint64, participant string) ([]byte, error) {
	addr, err := addressKey(participant)
	if err != nil {
		return nil, err
	}
	return append(poolKey(poolID), addr...), nil
}

func addressKey(values ...string) ([]byte, error) {
	key := make([]byte, 0, len(values)*common.AddressLength)
	for _, v := range values {
		if !common.IsHexAddress(v) {
			return nil, fmt.Errorf("invalid address key: %q", v)
		}
		key = append(key, common.HexToAddress(v).Bytes()...)
	}
	return key, nil
}
