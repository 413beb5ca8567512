package purchase

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrRaffleNotFound   = errors.New("raffle not found")
	ErrRaffleNotActive  = errors.New("raffle is not active")
	ErrPurchaseNotFound = errors.New("purchase not found")
	ErrConflict         = errors.New("some numbers are unavailable")
	ErrRateLimited      = errors.New("too many purchase attempts")
	ErrUpstream         = errors.New("payment provider unavailable")
	ErrPaymentMismatch  = errors.New("payment notification does not match purchase")
	ErrInvalidState     = errors.New("invalid purchase state transition")
)

// ConflictError lists every requested number that was already taken.
type ConflictError struct {
	Numbers []int
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("numbers unavailable: %v", e.Numbers)
}

func (e ConflictError) Is(target error) bool {
	return target == ErrConflict
}

type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry in %s", e.RetryAfter)
}

func (e RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}

// UpstreamError reports a payment provider failure. The reservation has
// been released and the submission can be retried as is.
type UpstreamError struct {
	Err error
}

func (e UpstreamError) Error() string {
	return fmt.Sprintf("payment provider: %v", e.Err)
}

func (e UpstreamError) Unwrap() error {
	return e.Err
}

func (e UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
