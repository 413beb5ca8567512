package redis

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
)

const ns = "rafflego:v1"

var listStatuses = []string{
	"all",
	string(domain.RaffleActive),
	string(domain.RaffleCompleted),
	string(domain.RaffleCancelled),
}

func KeyRaffle(id uuid.UUID) string {
	return fmt.Sprintf("%s:raffle:%s", ns, id)
}

func KeyRaffleCounts(id uuid.UUID) string {
	return fmt.Sprintf("%s:raffle:%s:counts", ns, id)
}

func KeyRaffleStats(id uuid.UUID) string {
	return fmt.Sprintf("%s:raffle:%s:stats", ns, id)
}

// KeyRaffleList keys a listing by status; an empty status is the full list.
func KeyRaffleList(status domain.RaffleStatus) string {
	s := string(status)
	if s == "" {
		s = "all"
	}
	return fmt.Sprintf("%s:raffles:%s", ns, s)
}

func KeyAdminStats() string {
	return ns + ":stats:admin"
}

func KeyRateLimit(scope string) string {
	return fmt.Sprintf("%s:rl:%s", ns, scope)
}

func KeyIdemPurchase(idemKey string) string {
	return fmt.Sprintf("%s:idem:purchases:%s", ns, idemKey)
}

func ChannelRafflesChanged() string {
	return ns + ":raffles:changed"
}
