package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/metrics"
	"github.com/kirinyoku/raffle-go/internal/notify"
	"github.com/kirinyoku/raffle-go/internal/payment"
	"github.com/kirinyoku/raffle-go/internal/repository"
	"github.com/kirinyoku/raffle-go/internal/service/ledger"
)

type Store interface {
	GetRaffle(ctx context.Context, id uuid.UUID) (*domain.Raffle, error)
	CreatePurchase(ctx context.Context, p domain.Purchase) error
	AttachSession(ctx context.Context, purchaseID uuid.UUID, sessionID, checkoutURL string, now time.Time) error
	GetPurchase(ctx context.Context, id uuid.UUID) (*domain.Purchase, error)
	GetPurchaseBySession(ctx context.Context, sessionID string) (*domain.Purchase, error)
	ListPurchases(ctx context.Context, raffleID uuid.UUID) ([]domain.Purchase, error)
}

// Limiter is satisfied by the redis sliding window and the in-process
// token bucket.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, int64, time.Duration, error)
}

type Config struct {
	Currency       string
	ReservationTTL time.Duration
}

type Service struct {
	store    Store
	ledger   *ledger.Service
	gateway  payment.Provider
	limiter  Limiter
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	cfg      Config
	now      func() time.Time
}

func New(
	store Store,
	ledgerSvc *ledger.Service,
	gateway payment.Provider,
	limiter Limiter,
	notifier notify.Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "brl"
	}
	cfg.Currency = strings.ToLower(cfg.Currency)

	if notifier == nil {
		notifier = notify.Nop{}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:    store,
		ledger:   ledgerSvc,
		gateway:  gateway,
		limiter:  limiter,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Submit reserves the selected numbers for a buyer and opens a payment
// session for them. The total is locked at the raffle price read here.
//
// Returns:
//   - *Attempt: the attempt in StateAwaitingPayment on success, or in
//     StateFailed when the selection conflicted or the provider failed.
//   - error: domain.ValidationError for a malformed buyer or selection.
//   - error: purchase.RateLimitedError when the client is throttled.
//   - error: purchase.ConflictError listing every unavailable number.
//   - error: purchase.UpstreamError when the payment provider failed.
//   - error: purchase.ErrRaffleNotFound or purchase.ErrRaffleNotActive.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Attempt, error) {
	const op = "service.purchase.Submit"

	a := newAttempt(req.RaffleID, req.Numbers)

	buyer := domain.Buyer{
		Name:  strings.TrimSpace(req.Buyer.Name),
		Phone: strings.TrimSpace(req.Buyer.Phone),
		Email: strings.TrimSpace(req.Buyer.Email),
	}
	if err := validateBuyer(&buyer); err != nil {
		return nil, fmt.Errorf("%s:%w", op, domain.NewValidationError(err))
	}

	if err := s.allow(ctx, req.ClientKey); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := a.advance(StateReserving); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	raffle, err := s.store.GetRaffle(ctx, req.RaffleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrRaffleNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if raffle.Status != domain.RaffleActive {
		return nil, fmt.Errorf("%s:%w", op, ErrRaffleNotActive)
	}

	total, err := totalCents(raffle.PriceCents, len(req.Numbers))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, domain.NewValidationError(err))
	}

	ttl := req.TTL
	if ttl == 0 {
		ttl = s.cfg.ReservationTTL
	}

	res, err := s.ledger.Reserve(ctx, raffle.ID, req.Numbers, buyer, ttl)
	if err != nil {
		var unavailable ledger.NumbersUnavailableError
		if errors.As(err, &unavailable) {
			a.Conflict = unavailable.Numbers
			a.fail("numbers unavailable")
			return a, fmt.Errorf("%s:%w", op, ConflictError{Numbers: unavailable.Numbers})
		}

		return nil, fmt.Errorf("%s:%w", op, mapLedgerErr(err))
	}

	a.Numbers = res.Numbers
	a.Token = res.Token
	a.ExpiresAt = res.ExpiresAt
	a.TotalCents = total
	a.Currency = s.cfg.Currency

	if err := a.advance(StateReserved); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	now := s.now()
	p := domain.Purchase{
		ID:               uuid.New(),
		RaffleID:         raffle.ID,
		Numbers:          res.Numbers,
		Buyer:            buyer,
		TotalCents:       a.TotalCents,
		Currency:         a.Currency,
		Status:           domain.PurchasePending,
		ReservationToken: res.Token,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.CreatePurchase(ctx, p); err != nil {
		s.abort(ctx, a, ledger.ReasonAborted, err)
		return a, fmt.Errorf("%s:%w", op, err)
	}
	a.PurchaseID = p.ID

	session, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		Reference:     p.ID.String(),
		AmountCents:   p.TotalCents,
		Currency:      p.Currency,
		Quantity:      int64(len(p.Numbers)),
		UnitCents:     raffle.PriceCents,
		Description:   fmt.Sprintf("%s - numbers %s", raffle.Title, joinNumbers(p.Numbers)),
		CustomerEmail: buyer.Email,
		Metadata: map[string]string{
			"purchase_id": p.ID.String(),
			"raffle_id":   raffle.ID.String(),
			"numbers":     joinNumbers(p.Numbers),
			"buyer_name":  buyer.Name,
			"buyer_phone": buyer.Phone,
		},
	})
	if err != nil {
		s.abort(ctx, a, ledger.ReasonGatewayError, err)
		return a, fmt.Errorf("%s:%w", op, UpstreamError{Err: err})
	}

	if err := s.store.AttachSession(ctx, p.ID, session.ID, session.RedirectURL, s.now()); err != nil {
		s.abort(ctx, a, ledger.ReasonAborted, err)
		return a, fmt.Errorf("%s:%w", op, err)
	}

	a.SessionID = session.ID
	a.RedirectURL = session.RedirectURL

	if err := a.advance(StateAwaitingPayment); err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.logger.Info("purchase awaiting payment",
		"purchase_id", p.ID,
		"raffle_id", raffle.ID,
		"numbers", len(p.Numbers),
		"total_cents", p.TotalCents,
		"provider", s.gateway.Name(),
	)

	return a, nil
}

// HandleOutcome applies a verified payment notification to its purchase.
// Session, amount and currency are checked before anything changes. Repeated
// notifications for a settled purchase leave it untouched.
//
// Returns:
//   - *domain.Purchase: the purchase after the notification was applied.
//   - error: purchase.ErrPurchaseNotFound if no purchase matches.
//   - error: purchase.ErrPaymentMismatch if the notification disagrees with it.
func (s *Service) HandleOutcome(ctx context.Context, n *payment.Notification) (*domain.Purchase, error) {
	const op = "service.purchase.HandleOutcome"

	p, err := s.findPurchase(ctx, n)
	if err != nil {
		s.metrics.Payment(string(n.Outcome), "unknown")
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if err := matches(p, n); err != nil {
		s.metrics.Payment(string(n.Outcome), "mismatch")
		s.logger.Warn("payment notification rejected",
			"purchase_id", p.ID,
			"event_id", n.EventID,
			"error", err,
		)
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	switch p.Status {
	case domain.PurchaseConfirmed:
		s.metrics.Payment(string(n.Outcome), "duplicate")
		if n.Outcome != payment.OutcomeSucceeded {
			s.logger.Warn("failure notification for confirmed purchase ignored",
				"purchase_id", p.ID,
				"outcome", n.Outcome,
			)
		}
		return p, nil

	case domain.PurchaseCancelled:
		if n.Outcome == payment.OutcomeSucceeded {
			s.latePayment(ctx, p)
			return p, nil
		}
		s.metrics.Payment(string(n.Outcome), "duplicate")
		return p, nil
	}

	if n.Outcome == payment.OutcomeSucceeded {
		return s.confirm(ctx, p)
	}

	return s.release(ctx, p, n.Outcome)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	const op = "service.purchase.Get"

	p, err := s.store.GetPurchase(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s:%w", op, ErrPurchaseNotFound)
		}
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return p, nil
}

// List returns purchases newest first; uuid.Nil lists every raffle.
func (s *Service) List(ctx context.Context, raffleID uuid.UUID) ([]domain.Purchase, error) {
	const op = "service.purchase.List"

	out, err := s.store.ListPurchases(ctx, raffleID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	return out, nil
}

func (s *Service) confirm(ctx context.Context, p *domain.Purchase) (*domain.Purchase, error) {
	const op = "service.purchase.confirm"

	out, err := s.ledger.Confirm(ctx, p.ReservationToken)
	if err != nil {
		if errors.Is(err, ledger.ErrAlreadyResolved) || errors.Is(err, ledger.ErrRaffleNotActive) {
			return s.settledMeanwhile(ctx, p, payment.OutcomeSucceeded)
		}
		s.metrics.Payment(string(payment.OutcomeSucceeded), "error")
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.metrics.Payment(string(payment.OutcomeSucceeded), "confirmed")

	confirmed := p
	if out.Purchase != nil {
		confirmed = out.Purchase
	}

	s.logger.Info("purchase confirmed",
		"purchase_id", confirmed.ID,
		"raffle_id", confirmed.RaffleID,
		"numbers", len(confirmed.Numbers),
	)

	if raffle, err := s.store.GetRaffle(ctx, confirmed.RaffleID); err == nil {
		notify.Async(ctx, s.notifier, s.logger, notify.PurchaseConfirmed(raffle, confirmed), "purchase_id", confirmed.ID)
	}

	return confirmed, nil
}

func (s *Service) release(ctx context.Context, p *domain.Purchase, outcome payment.Outcome) (*domain.Purchase, error) {
	const op = "service.purchase.release"

	out, err := s.ledger.Release(ctx, p.ReservationToken, ledger.ReasonPaymentFailed)
	if err != nil {
		if errors.Is(err, ledger.ErrAlreadyResolved) {
			return s.settledMeanwhile(ctx, p, outcome)
		}
		s.metrics.Payment(string(outcome), "error")
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	s.metrics.Payment(string(outcome), "released")

	if out.Purchase != nil {
		return out.Purchase, nil
	}
	return p, nil
}

// settledMeanwhile handles a notification that lost the race against
// another resolution of the same reservation, such as the expiry timer.
func (s *Service) settledMeanwhile(ctx context.Context, p *domain.Purchase, outcome payment.Outcome) (*domain.Purchase, error) {
	const op = "service.purchase.settledMeanwhile"

	current, err := s.store.GetPurchase(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if outcome == payment.OutcomeSucceeded && current.Status != domain.PurchaseConfirmed {
		s.latePayment(ctx, current)
		return current, nil
	}

	s.metrics.Payment(string(outcome), "duplicate")
	return current, nil
}

func (s *Service) latePayment(ctx context.Context, p *domain.Purchase) {
	s.metrics.Payment(string(payment.OutcomeSucceeded), "late")
	s.metrics.LatePayment()

	s.logger.Warn("payment succeeded after reservation was released",
		"purchase_id", p.ID,
		"raffle_id", p.RaffleID,
		"total_cents", p.TotalCents,
		"session_id", p.SessionID,
	)

	notify.Async(ctx, s.notifier, s.logger, notify.LatePayment(p), "purchase_id", p.ID)
}

func (s *Service) findPurchase(ctx context.Context, n *payment.Notification) (*domain.Purchase, error) {
	if id, err := uuid.Parse(n.Reference); err == nil {
		p, err := s.store.GetPurchase(ctx, id)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	if n.SessionID != "" {
		p, err := s.store.GetPurchaseBySession(ctx, n.SessionID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	return nil, ErrPurchaseNotFound
}

func matches(p *domain.Purchase, n *payment.Notification) error {
	if n.SessionID == "" || n.SessionID != p.SessionID {
		return fmt.Errorf("%w: session %q", ErrPaymentMismatch, n.SessionID)
	}

	if n.AmountCents != p.TotalCents {
		return fmt.Errorf("%w: amount %d, expected %d", ErrPaymentMismatch, n.AmountCents, p.TotalCents)
	}

	if !strings.EqualFold(n.Currency, p.Currency) {
		return fmt.Errorf("%w: currency %q, expected %q", ErrPaymentMismatch, n.Currency, p.Currency)
	}

	return nil
}

func (s *Service) allow(ctx context.Context, key string) error {
	if s.limiter == nil || key == "" {
		return nil
	}

	ok, _, retry, err := s.limiter.Allow(ctx, key)
	if err != nil {
		s.logger.Warn("rate limiter unavailable", "error", err)
		return nil
	}

	if !ok {
		return RateLimitedError{RetryAfter: retry}
	}

	return nil
}

// abort releases the reservation of an attempt that could not reach the
// payment step. Releasing also cancels the purchase bound to it.
func (s *Service) abort(ctx context.Context, a *Attempt, reason string, cause error) {
	if _, err := s.ledger.Release(ctx, a.Token, reason); err != nil && !errors.Is(err, ledger.ErrAlreadyResolved) {
		s.logger.Error("release after failed submission",
			"token", a.Token,
			"reason", reason,
			"error", err,
		)
	}

	s.logger.Warn("purchase submission aborted",
		"raffle_id", a.RaffleID,
		"token", a.Token,
		"reason", reason,
		"error", cause,
	)

	a.fail(reason)
}

func mapLedgerErr(err error) error {
	switch {
	case errors.Is(err, ledger.ErrRaffleNotFound):
		return ErrRaffleNotFound
	case errors.Is(err, ledger.ErrRaffleNotActive):
		return ErrRaffleNotActive
	}
	return err
}

func joinNumbers(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
