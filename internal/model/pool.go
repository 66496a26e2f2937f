package model

// PoolRecord is the persisted form of a staking pool.
type PoolRecord struct {
	ID                uint64 `json:"id"`
	StakedAsset       string `json:"staked_asset"`
	RewardRatePerTick string `json:"reward_rate_per_tick"`
	LastAccrualTick   uint64 `json:"last_accrual_tick"`
	AccRewardPerUnit  string `json:"acc_reward_per_unit"`
	TotalStaked       string `json:"total_staked"`
}
