package draw

import "errors"

var (
	ErrRaffleNotFound  = errors.New("raffle not found")
	ErrAlreadyDrawn    = errors.New("raffle already drawn")
	ErrRaffleCancelled = errors.New("raffle was cancelled")
	ErrNoSoldNumbers   = errors.New("raffle has no sold numbers")
)
