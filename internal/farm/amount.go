package farm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// ParseAmount parses a base-10 token amount. Negative, malformed or out of range
// values fail with ErrInvalidAmount.
func ParseAmount(value string) (*uint256.Int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	parsed, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, value)
	}
	if parsed.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative %s", ErrInvalidAmount, value)
	}
	amt, overflow := uint256.FromBig(parsed)
	if overflow {
		return nil, fmt.Errorf("%w: out of range %s", ErrInvalidAmount, value)
	}
	return amt, nil
}

// FormatAmount renders an amount in base 10.
func FormatAmount(value *uint256.Int) string {
	if value == nil {
		return "0"
	}
	return value.ToBig().String()
}

func clone(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(x)
}
