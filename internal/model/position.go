package model

// PositionRecord is the persisted form of a participant's stake in one pool.
type PositionRecord struct {
	PoolID        uint64 `json:"pool_id"`
	Participant   string `json:"participant"`
	Amount        string `json:"amount"`
	RewardDebt    string `json:"reward_debt"`
	PendingReward string `json:"pending_reward"`
}
