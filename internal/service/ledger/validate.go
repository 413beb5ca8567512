package ledger

import (
	"errors"
	"fmt"

	"github.com/kirinyoku/raffle-go/internal/domain"
)

var (
	errNoNumbers = errors.New("numbers: select at least one number")
)

// ValidateSelection checks a requested set of numbers independently of any
// raffle: non-empty, bounded in size, without duplicates.
func ValidateSelection(numbers []int, max int) error {
	if len(numbers) == 0 {
		return domain.NewValidationError(errNoNumbers)
	}

	if max > 0 && len(numbers) > max {
		return domain.NewValidationError(fmt.Errorf("numbers: at most %d numbers per reservation", max))
	}

	seen := make(map[int]struct{}, len(numbers))
	for _, n := range numbers {
		if _, ok := seen[n]; ok {
			return domain.NewValidationError(fmt.Errorf("numbers: %d selected more than once", n))
		}
		seen[n] = struct{}{}
	}

	return nil
}

// ValidateRange checks every number lies in [1, total].
func ValidateRange(numbers []int, total int) error {
	var bad []int
	for _, n := range numbers {
		if n < 1 || n > total {
			bad = append(bad, n)
		}
	}

	if len(bad) > 0 {
		return domain.NewValidationError(fmt.Errorf("numbers: %v outside 1..%d", bad, total))
	}

	return nil
}
