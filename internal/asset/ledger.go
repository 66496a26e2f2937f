package asset

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"yieldfarm/internal/model"
)

type holding struct {
	token  common.Address
	holder common.Address
}

type approval struct {
	token   common.Address
	owner   common.Address
	spender common.Address
}

// Ledger is an in-memory Store with mint and approve support.
type Ledger struct {
	balances   map[holding]*uint256.Int
	allowances map[approval]*uint256.Int
}

func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[holding]*uint256.Int),
		allowances: make(map[approval]*uint256.Int),
	}
}

// BalanceOf returns the balance of holder in token.
func (l *Ledger) BalanceOf(token, holder common.Address) *uint256.Int {
	if bal, ok := l.balances[holding{token, holder}]; ok {
		return new(uint256.Int).Set(bal)
	}
	return new(uint256.Int)
}

// Allowance returns how much spender may move on behalf of owner.
func (l *Ledger) Allowance(token, owner, spender common.Address) *uint256.Int {
	if amt, ok := l.allowances[approval{token, owner, spender}]; ok {
		return new(uint256.Int).Set(amt)
	}
	return new(uint256.Int)
}

// Mint credits amount of token to holder.
func (l *Ledger) Mint(token, holder common.Address, amount *uint256.Int) error {
	key := holding{token, holder}
	next, overflow := new(uint256.Int).AddOverflow(l.BalanceOf(token, holder), amount)
	if overflow {
		return fmt.Errorf("mint %s to %s: balance overflow", token.Hex(), holder.Hex())
	}
	l.balances[key] = next
	return nil
}

// Approve sets the allowance owner grants to spender, replacing any previous value.
func (l *Ledger) Approve(token, owner, spender common.Address, amount *uint256.Int) {
	l.allowances[approval{token, owner, spender}] = new(uint256.Int).Set(amount)
}

func (l *Ledger) TransferFrom(_ context.Context, token, spender, from, to common.Address, amount *uint256.Int) error {
	allowed := l.Allowance(token, from, spender)
	if allowed.Lt(amount) {
		return ErrInsufficientAllowance
	}
	if err := l.move(token, from, to, amount); err != nil {
		return err
	}
	l.allowances[approval{token, from, spender}] = allowed.Sub(allowed, amount)
	return nil
}

func (l *Ledger) Transfer(_ context.Context, token, from, to common.Address, amount *uint256.Int) error {
	return l.move(token, from, to, amount)
}

func (l *Ledger) move(token, from, to common.Address, amount *uint256.Int) error {
	src := l.BalanceOf(token, from)
	if src.Lt(amount) {
		return ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	dst, overflow := new(uint256.Int).AddOverflow(l.BalanceOf(token, to), amount)
	if overflow {
		return fmt.Errorf("credit %s: balance overflow", to.Hex())
	}
	l.balances[holding{token, from}] = src.Sub(src, amount)
	l.balances[holding{token, to}] = dst
	return nil
}

// Records exports balances and allowances in a stable order.
func (l *Ledger) Records() ([]model.BalanceRecord, []model.AllowanceRecord) {
	balances := make([]model.BalanceRecord, 0, len(l.balances))
	for key, amt := range l.balances {
		balances = append(balances, model.BalanceRecord{
			Token:  key.token.Hex(),
			Holder: key.holder.Hex(),
			Amount: amt.ToBig().String(),
		})
	}
	sort.Slice(balances, func(i, j int) bool {
		if balances[i].Token != balances[j].Token {
			return balances[i].Token < balances[j].Token
		}
		return balances[i].Holder < balances[j].Holder
	})

	allowances := make([]model.AllowanceRecord, 0, len(l.allowances))
	for key, amt := range l.allowances {
		allowances = append(allowances, model.AllowanceRecord{
			Token:   key.token.Hex(),
			Owner:   key.owner.Hex(),
			Spender: key.spender.Hex(),
			Amount:  amt.ToBig().String(),
		})
	}
	sort.Slice(allowances, func(i, j int) bool {
		a, b := allowances[i], allowances[j]
		return a.Token+a.Owner+a.Spender < b.Token+b.Owner+b.Spender
	})
	return balances, allowances
}

// LoadLedger rebuilds a Ledger from persisted records.
func LoadLedger(balances []model.BalanceRecord, allowances []model.AllowanceRecord) (*Ledger, error) {
	l := NewLedger()
	for _, rec := range balances {
		token, holder, err := parsePair(rec.Token, rec.Holder)
		if err != nil {
			return nil, fmt.Errorf("balance record: %w", err)
		}
		amt, err := parseAmount(rec.Amount)
		if err != nil {
			return nil, fmt.Errorf("balance %s/%s: %w", rec.Token, rec.Holder, err)
		}
		l.balances[holding{token, holder}] = amt
	}
	for _, rec := range allowances {
		token, owner, err := parsePair(rec.Token, rec.Owner)
		if err != nil {
			return nil, fmt.Errorf("allowance record: %w", err)
		}
		if !common.IsHexAddress(rec.Spender) {
			return nil, fmt.Errorf("allowance record: invalid spender: %s", rec.Spender)
		}
		amt, err := parseAmount(rec.Amount)
		if err != nil {
			return nil, fmt.Errorf("allowance %s/%s: %w", rec.Token, rec.Owner, err)
		}
		l.allowances[approval{token, owner, common.HexToAddress(rec.Spender)}] = amt
	}
	return l, nil
}

func parsePair(a, b string) (common.Address, common.Address, error) {
	if !common.IsHexAddress(a) {
		return common.Address{}, common.Address{}, fmt.Errorf("invalid address: %s", a)
	}
	if !common.IsHexAddress(b) {
		return common.Address{}, common.Address{}, fmt.Errorf("invalid address: %s", b)
	}
	return common.HexToAddress(a), common.HexToAddress(b), nil
}

func parseAmount(value string) (*uint256.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return new(uint256.Int), nil
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok || parsed.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount: %s", value)
	}
	amt, overflow := uint256.FromBig(parsed)
	if overflow {
		return nil, fmt.Errorf("amount out of range: %s", value)
	}
	return amt, nil
}
