package farm

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not found")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientStake  = errors.New("insufficient stake")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrReentrant          = errors.New("reentrant call")
	ErrInvalidSchedule    = errors.New("invalid schedule")
	ErrInvalidAsset       = errors.New("invalid asset")
)
