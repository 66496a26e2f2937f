package model

// BalanceRecord is a token balance held by an account.
type BalanceRecord struct {
	Token  string `json:"token"`
	Holder string `json:"holder"`
	Amount string `json:"amount"`
}

// AllowanceRecord is the amount a spender may move on the owner's behalf.
type AllowanceRecord struct {
	Token   string `json:"token"`
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}
