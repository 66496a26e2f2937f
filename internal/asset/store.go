package asset

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)

// Store moves transferable balances. A failed call leaves every balance untouched.
type Store interface {
	// TransferFrom moves amount of token from one account to another using the
	// allowance from has granted to spender.
	TransferFrom(ctx context.Context, token, spender, from, to common.Address, amount *uint256.Int) error
	// Transfer moves amount of token held by from.
	Transfer(ctx context.Context, token, from, to common.Address, amount *uint256.Int) error
}
