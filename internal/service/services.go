package service

import (
	"log/slog"

	"github.com/kirinyoku/raffle-go/internal/events"
	"github.com/kirinyoku/raffle-go/internal/metrics"
	"github.com/kirinyoku/raffle-go/internal/notify"
	"github.com/kirinyoku/raffle-go/internal/payment"
	redis "github.com/kirinyoku/raffle-go/internal/repository/redis"
	"github.com/kirinyoku/raffle-go/internal/service/auth"
	"github.com/kirinyoku/raffle-go/internal/service/draw"
	"github.com/kirinyoku/raffle-go/internal/service/ledger"
	"github.com/kirinyoku/raffle-go/internal/service/purchase"
	"github.com/kirinyoku/raffle-go/internal/service/query"
	"github.com/kirinyoku/raffle-go/internal/service/raffles"
)

// Store is the full persistence surface. Both the in-memory and the
// postgres stores satisfy it.
type Store interface {
	raffles.Store
	ledger.Store
	purchase.Store
	draw.Store
	query.Store
}

type Services struct {
	Raffles  *raffles.Service
	Ledger   *ledger.Service
	Purchase *purchase.Service
	Draw     *draw.Service
	Query    *query.Service
	Auth     *auth.Service
}

type Config struct {
	Raffles  raffles.Config
	Ledger   ledger.Config
	Purchase purchase.Config
	Query    query.Config
}

// Deps carries the collaborators shared by the services. Cache may be nil,
// in which case reads go straight to the store.
type Deps struct {
	Store    Store
	Cache    *redis.Cache
	Changes  *events.Changes
	Gateway  payment.Provider
	Limiter  purchase.Limiter
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Auth     *auth.Service
	Logger   *slog.Logger
}

func NewServices(d Deps, cfg Config) *Services {
	ledgerSvc := ledger.New(d.Store, d.Changes, d.Metrics, d.Logger, cfg.Ledger)

	return &Services{
		Raffles:  raffles.New(d.Store, d.Changes, d.Logger, cfg.Raffles),
		Ledger:   ledgerSvc,
		Purchase: purchase.New(d.Store, ledgerSvc, d.Gateway, d.Limiter, d.Notifier, d.Metrics, d.Logger, cfg.Purchase),
		Draw:     draw.New(d.Store, d.Changes, d.Metrics, d.Notifier, d.Logger),
		Query:    query.New(d.Store, d.Cache, cfg.Query),
		Auth:     d.Auth,
	}
}
