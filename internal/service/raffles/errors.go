package raffles

import (
	"errors"
)

var (
	ErrRaffleNotFound  = errors.New("raffle not found")
	ErrRaffleNotActive = errors.New("raffle is not active")
	ErrRaffleInUse     = errors.New("raffle has reserved or sold numbers")
)
