package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrNumbersUnavailable = errors.New("some numbers unavailable")
	ErrNumberOutOfRange   = errors.New("number out of range")
	ErrDuplicateNumber    = errors.New("duplicate number")
	ErrRaffleNotActive    = errors.New("raffle not active")
	ErrRaffleCompleted    = errors.New("raffle already completed")
	ErrRaffleInUse        = errors.New("raffle has claimed numbers")
	ErrAlreadyResolved    = errors.New("reservation already resolved")
	ErrNoSoldNumbers      = errors.New("no sold numbers")
)

// NumbersUnavailableError lists every requested number that was not
// available at the time of the reservation attempt.
type NumbersUnavailableError struct {
	Numbers []int
}

func (e NumbersUnavailableError) Error() string {
	return fmt.Sprintf("numbers unavailable: %v", e.Numbers)
}

func (e NumbersUnavailableError) Is(target error) bool {
	return target == ErrNumbersUnavailable
}
