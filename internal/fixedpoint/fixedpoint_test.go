package fixedpoint

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestRate(t *testing.T) {
	rate, err := Rate(uint256.NewInt(50), uint256.NewInt(10))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(5_000_000_000_000), rate)

	// 1/3 keeps twelve digits and rounds down.
	rate, err = Rate(uint256.NewInt(1), uint256.NewInt(3))
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(333_333_333_333), rate)
}

func TestRateZeroDenominator(t *testing.T) {
	_, err := Rate(uint256.NewInt(1), new(uint256.Int))
	require.ErrorIs(t, err, ErrDivisionByZero)
	_, err = Rate(uint256.NewInt(1), nil)
	require.ErrorIs(t, err, ErrDivisionByZero)
}

func TestOverflowIsReported(t *testing.T) {
	max := new(uint256.Int).SetAllOne()

	_, err := Mul(max, uint256.NewInt(2))
	require.ErrorIs(t, err, ErrOverflow)

	_, err = Add(max, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrOverflow)

	_, err = Rate(max, uint256.NewInt(1))
	require.ErrorIs(t, err, ErrOverflow)

	_, err = Sub(uint256.NewInt(1), uint256.NewInt(2))
	require.ErrorIs(t, err, ErrUnderflow)
}

func TestDescale(t *testing.T) {
	require.Equal(t, uint256.NewInt(75), Descale(uint256.NewInt(75_999_999_999_999)))
	require.True(t, Descale(nil).IsZero())
}

func TestScaleIsCopy(t *testing.T) {
	s := Scale()
	s.SetUint64(7)
	require.Equal(t, uint256.NewInt(1_000_000_000_000), Scale())
}
