package asset

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"yieldfarm/internal/model"
)

var (
	token   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	alice   = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	bob     = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	custody = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

func TestLedgerTransfer(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Mint(token, alice, uint256.NewInt(100)))

	require.NoError(t, l.Transfer(context.Background(), token, alice, bob, uint256.NewInt(40)))
	require.Equal(t, uint256.NewInt(60), l.BalanceOf(token, alice))
	require.Equal(t, uint256.NewInt(40), l.BalanceOf(token, bob))

	err := l.Transfer(context.Background(), token, bob, alice, uint256.NewInt(41))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, uint256.NewInt(40), l.BalanceOf(token, bob))
}

func TestLedgerTransferFrom(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	require.NoError(t, l.Mint(token, alice, uint256.NewInt(100)))

	err := l.TransferFrom(ctx, token, custody, alice, custody, uint256.NewInt(10))
	require.ErrorIs(t, err, ErrInsufficientAllowance)

	l.Approve(token, alice, custody, uint256.NewInt(500))
	require.NoError(t, l.TransferFrom(ctx, token, custody, alice, custody, uint256.NewInt(30)))
	require.Equal(t, uint256.NewInt(470), l.Allowance(token, alice, custody))
	require.Equal(t, uint256.NewInt(30), l.BalanceOf(token, custody))

	// allowance is left alone when the balance is short
	err = l.TransferFrom(ctx, token, custody, alice, custody, uint256.NewInt(71))
	require.ErrorIs(t, err, ErrInsufficientBalance)
	require.Equal(t, uint256.NewInt(470), l.Allowance(token, alice, custody))
	require.Equal(t, uint256.NewInt(70), l.BalanceOf(token, alice))
}

func TestLedgerRecordsRoundTrip(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Mint(token, alice, uint256.NewInt(7)))
	require.NoError(t, l.Mint(token, bob, uint256.NewInt(9)))
	l.Approve(token, alice, custody, uint256.NewInt(3))

	balances, allowances := l.Records()
	require.Len(t, balances, 2)
	require.Len(t, allowances, 1)

	restored, err := LoadLedger(balances, allowances)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(7), restored.BalanceOf(token, alice))
	require.Equal(t, uint256.NewInt(9), restored.BalanceOf(token, bob))
	require.Equal(t, uint256.NewInt(3), restored.Allowance(token, alice, custody))
}

func TestLoadLedgerRejectsBadRecords(t *testing.T) {
	_, err := LoadLedger([]model.BalanceRecord{{Token: token.Hex(), Holder: "nope", Amount: "1"}}, nil)
	require.Error(t, err)

	_, err = LoadLedger([]model.BalanceRecord{{Token: token.Hex(), Holder: alice.Hex(), Amount: "-1"}}, nil)
	require.Error(t, err)
}
