package fixedpoint

import (
	"errors"

	"github.com/holiman/uint256"
)

// ScaleExponent is the number of decimal digits carried by per-unit rates.
const ScaleExponent = 12

var (
	ErrOverflow       = errors.New("fixed-point overflow")
	ErrUnderflow      = errors.New("fixed-point underflow")
	ErrDivisionByZero = errors.New("fixed-point division by zero")
)

var scale = uint256.NewInt(1_000_000_000_000)

// Scale returns a copy of the fixed-point factor (10^ScaleExponent).
func Scale() *uint256.Int {
	return new(uint256.Int).Set(scale)
}

// Rate converts a reward spread over denominator units into a scaled per-unit rate.
func Rate(reward, denominator *uint256.Int) (*uint256.Int, error) {
	if denominator == nil || denominator.IsZero() {
		return nil, ErrDivisionByZero
	}
	scaled, err := Mul(reward, scale)
	if err != nil {
		return nil, err
	}
	return scaled.Div(scaled, denominator), nil
}

// Mul returns x*y or ErrOverflow.
func Mul(x, y *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).MulOverflow(orZero(x), orZero(y))
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// Add returns x+y or ErrOverflow.
func Add(x, y *uint256.Int) (*uint256.Int, error) {
	out, overflow := new(uint256.Int).AddOverflow(orZero(x), orZero(y))
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// Sub returns x-y or ErrUnderflow.
func Sub(x, y *uint256.Int) (*uint256.Int, error) {
	out, underflow := new(uint256.Int).SubOverflow(orZero(x), orZero(y))
	if underflow {
		return nil, ErrUnderflow
	}
	return out, nil
}

// Descale drops the fixed-point factor, rounding down.
func Descale(x *uint256.Int) *uint256.Int {
	return new(uint256.Int).Div(orZero(x), scale)
}

func orZero(x *uint256.Int) *uint256.Int {
	if x == nil {
		return new(uint256.Int)
	}
	return x
}
