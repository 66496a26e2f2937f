package model

// ScheduleRecord stores the global emission window.
type ScheduleRecord struct {
	StartTick       uint64 `json:"start_tick"`
	EndTick         uint64 `json:"end_tick"`
	BaseRatePerTick string `json:"base_rate_per_tick"`
}

// LedgerMeta holds the singleton ledger settings.
type LedgerMeta struct {
	Admin       string         `json:"admin"`
	Custody     string         `json:"custody"`
	RewardAsset string         `json:"reward_asset"`
	Schedule    ScheduleRecord `json:"schedule"`
}

// Snapshot is the complete durable state of the ledger and its bundled asset store.
type Snapshot struct {
	Meta       LedgerMeta        `json:"meta"`
	Pools      []PoolRecord      `json:"pools"`
	Positions  []PositionRecord  `json:"positions"`
	Balances   []BalanceRecord   `json:"balances"`
	Allowances []AllowanceRecord `json:"allowances"`
	UpdatedAt  string            `json:"updated_at,omitempty"`
}
