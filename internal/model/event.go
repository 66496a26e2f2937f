package model

// EventRecord is a committed ledger operation written to the event log.
type EventRecord struct {
	Kind        string `json:"kind"`
	PoolID      uint64 `json:"pool_id"`
	Participant string `json:"participant,omitempty"`
	Asset       string `json:"asset,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Tick        uint64 `json:"tick"`
	RecordedAt  string `json:"recorded_at"`
}
