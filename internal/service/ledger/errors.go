package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrRaffleNotFound      = errors.New("raffle not found")
	ErrRaffleNotActive     = errors.New("raffle is not active")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrAlreadyResolved     = errors.New("reservation already resolved")
	ErrNumbersUnavailable  = errors.New("some numbers are unavailable")
)

// NumbersUnavailableError lists every number that blocked a reservation.
type NumbersUnavailableError struct {
	Numbers []int
}

func (e NumbersUnavailableError) Error() string {
	return fmt.Sprintf("numbers unavailable: %v", e.Numbers)
}

func (e NumbersUnavailableError) Is(target error) bool {
	return target == ErrNumbersUnavailable
}
