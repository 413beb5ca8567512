package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/raffle-go/internal/domain"
	"github.com/kirinyoku/raffle-go/internal/repository"
)

type slot struct {
	status     domain.NumberStatus
	buyer      *domain.Buyer
	token      *uuid.UUID
	purchaseID *uuid.UUID
	reservedAt *time.Time
	soldAt     *time.Time
}

// raffleEntry owns the number slots of one raffle. Every change to the slots,
// to the raffle record, and to the status of reservations and purchases of
// the raffle happens while mu is held.
type raffleEntry struct {
	mu      sync.Mutex
	raffle  domain.Raffle
	slots   []slot
	removed bool
}

// Store is an in-process implementation of the raffle store with per-raffle
// mutual exclusion. Lock order is raffle entry first, then Store.mu.
type Store struct {
	mu           sync.RWMutex
	raffles      map[uuid.UUID]*raffleEntry
	reservations map[uuid.UUID]domain.Reservation
	purchases    map[uuid.UUID]domain.Purchase
	byToken      map[uuid.UUID]uuid.UUID
	bySession    map[string]uuid.UUID
}

func NewStore() *Store {
	return &Store{
		raffles:      make(map[uuid.UUID]*raffleEntry),
		reservations: make(map[uuid.UUID]domain.Reservation),
		purchases:    make(map[uuid.UUID]domain.Purchase),
		byToken:      make(map[uuid.UUID]uuid.UUID),
		bySession:    make(map[string]uuid.UUID),
	}
}

func (s *Store) lockRaffle(id uuid.UUID) (*raffleEntry, error) {
	s.mu.RLock()
	e, ok := s.raffles[id]
	s.mu.RUnlock()
	if !ok {
		return nil, repository.ErrNotFound
	}

	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return nil, repository.ErrNotFound
	}

	return e, nil
}

// lockReservation locks the raffle that owns token and returns the
// reservation as seen under that lock.
func (s *Store) lockReservation(token uuid.UUID) (domain.Reservation, *raffleEntry, error) {
	s.mu.RLock()
	res, ok := s.reservations[token]
	s.mu.RUnlock()
	if !ok {
		return domain.Reservation{}, nil, repository.ErrNotFound
	}

	e, err := s.lockRaffle(res.RaffleID)
	if err != nil {
		return domain.Reservation{}, nil, err
	}

	s.mu.RLock()
	res, ok = s.reservations[token]
	s.mu.RUnlock()
	if !ok {
		e.mu.Unlock()
		return domain.Reservation{}, nil, repository.ErrNotFound
	}

	return res, e, nil
}

// CreateRaffle stores the raffle together with its N available numbers.
func (s *Store) CreateRaffle(ctx context.Context, r domain.Raffle) error {
	const op = "memory.Store.CreateRaffle"

	if r.TotalNumbers < 1 {
		return fmt.Errorf("%s:%w", op, repository.ErrNumberOutOfRange)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.raffles[r.ID]; ok {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}

	slots := make([]slot, r.TotalNumbers)
	for i := range slots {
		slots[i].status = domain.NumberAvailable
	}

	s.raffles[r.ID] = &raffleEntry{raffle: cloneRaffle(r), slots: slots}

	return nil
}

func (s *Store) GetRaffle(ctx context.Context, id uuid.UUID) (*domain.Raffle, error) {
	const op = "memory.Store.GetRaffle"

	e, err := s.lockRaffle(id)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	defer e.mu.Unlock()

	r := cloneRaffle(e.raffle)
	return &r, nil
}

// ListRaffles returns raffles newest first. An empty status lists all of them.
func (s *Store) ListRaffles(ctx context.Context, status domain.RaffleStatus) ([]domain.Raffle, error) {
	s.mu.RLock()
	entries := make([]*raffleEntry, 0, len(s.raffles))
	for _, e := range s.raffles {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]domain.Raffle, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed && (status == "" || e.raffle.Status == status) {
			out = append(out, cloneRaffle(e.raffle))
		}
		e.mu.Unlock()
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (s *Store) UpdateRaffle(
	ctx context.Context,
	id uuid.UUID,
	upd repository.RaffleUpdate,
	now time.Time,
) (*domain.Raffle, error) {
	const op = "memory.Store.UpdateRaffle"

	e, err := s.lockRaffle(id)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	defer e.mu.Unlock()

	if e.raffle.Status != domain.RaffleActive {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrRaffleNotActive)
	}

	r := &e.raffle
	if upd.Title != nil {
		r.Title = *upd.Title
	}
	if upd.Description != nil {
		r.Description = *upd.Description
	}
	if upd.Prize != nil {
		r.Prize = *upd.Prize
	}
	if upd.PriceCents != nil {
		r.PriceCents = *upd.PriceCents
	}
	if upd.ImageURL != nil {
		r.ImageURL = *upd.ImageURL
	}
	if upd.DrawDate != nil {
		r.DrawDate = *upd.DrawDate
	}
	r.UpdatedAt = now

	out := cloneRaffle(*r)
	return &out, nil
}

// CancelRaffle moves an active raffle to cancelled and releases every
// outstanding reservation on it.
func (s *Store) CancelRaffle(
	ctx context.Context,
	id uuid.UUID,
	now time.Time,
) (*domain.Raffle, []repository.Resolution, error) {
	const op = "memory.Store.CancelRaffle"

	e, err := s.lockRaffle(id)
	if err != nil {
		return nil, nil, fmt.Errorf("%s:%w", op, err)
	}
	defer e.mu.Unlock()

	if e.raffle.Status != domain.RaffleActive {
		return nil, nil, fmt.Errorf("%s:%w", op, repository.ErrRaffleNotActive)
	}

	released := s.releaseAllLocked(e, now)

	e.raffle.Status = domain.RaffleCancelled
	e.raffle.UpdatedAt = now

	r := cloneRaffle(e.raffle)
	return &r, released, nil
}

// DeleteRaffle removes the raffle with its numbers, reservations and
// purchases. An active raffle with claimed numbers cannot be deleted.
func (s *Store) DeleteRaffle(ctx context.Context, id uuid.UUID) error {
	const op = "memory.Store.DeleteRaffle"

	e, err := s.lockRaffle(id)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}
	defer e.mu.Unlock()

	if e.raffle.Status == domain.RaffleActive {
		for _, sl := range e.slots {
			if sl.status != domain.NumberAvailable {
				return fmt.Errorf("%s:%w", op, repository.ErrRaffleInUse)
			}
		}
	}

	e.removed = true

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.raffles, id)
	for token, res := range s.reservations {
		if res.RaffleID == id {
			delete(s.reservations, token)
			delete(s.byToken, token)
		}
	}
	for pid, p := range s.purchases {
		if p.RaffleID == id {
			delete(s.purchases, pid)
			if p.SessionID != "" {
				delete(s.bySession, p.SessionID)
			}
		}
	}

	return nil
}

// Reserve claims every requested number for the buyer or none of them.
func (s *Store) Reserve(ctx context.Context, p repository.ReserveParams) (*domain.Reservation, error) {
	const op = "memory.Store.Reserve"

	e, err := s.lockRaffle(p.RaffleID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	defer e.mu.Unlock()

	if e.raffle.Status != domain.RaffleActive {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrRaffleNotActive)
	}

	numbers := sortedCopy(p.Numbers)

	var taken []int
	for i, n := range numbers {
		if i > 0 && numbers[i-1] == n {
			return nil, fmt.Errorf("%s: %d:%w", op, n, repository.ErrDuplicateNumber)
		}
		if !e.raffle.InRange(n) {
			return nil, fmt.Errorf("%s: %d:%w", op, n, repository.ErrNumberOutOfRange)
		}
		if e.slots[n-1].status != domain.NumberAvailable {
			taken = append(taken, n)
		}
	}

	if len(taken) > 0 {
		return nil, fmt.Errorf("%s:%w", op, repository.NumbersUnavailableError{Numbers: taken})
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reservations[p.Token]; ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}

	buyer := p.Buyer
	token := p.Token
	reservedAt := p.Now
	for _, n := range numbers {
		e.slots[n-1] = slot{
			status:     domain.NumberReserved,
			buyer:      &buyer,
			token:      &token,
			reservedAt: &reservedAt,
		}
	}

	res := domain.Reservation{
		Token:     p.Token,
		RaffleID:  p.RaffleID,
		Numbers:   numbers,
		Buyer:     p.Buyer,
		Status:    domain.ReservationActive,
		ExpiresAt: p.ExpiresAt,
		CreatedAt: p.Now,
	}
	s.reservations[p.Token] = res

	out := cloneReservation(res)
	return &out, nil
}

// Confirm turns the reserved numbers into sold ones and confirms the pending
// purchase bound to the token, if any.
func (s *Store) Confirm(ctx context.Context, token uuid.UUID, now time.Time) (*repository.Resolution, error) {
	const op = "memory.Store.Confirm"

	res, e, err := s.lockReservation(token)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	defer e.mu.Unlock()

	if res.Status != domain.ReservationActive {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrAlreadyResolved)
	}

	if e.raffle.Status != domain.RaffleActive {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrRaffleNotActive)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var purchaseID *uuid.UUID
	if pid, ok := s.byToken[token]; ok {
		purchaseID = &pid
	}

	soldAt := now
	for _, n := range res.Numbers {
		sl := &e.slots[n-1]
		sl.status = domain.NumberSold
		sl.soldAt = &soldAt
		sl.purchaseID = purchaseID
	}

	resolvedAt := now
	res.Status = domain.ReservationConfirmed
	res.ResolvedAt = &resolvedAt
	s.reservations[token] = res

	out := &repository.Resolution{Reservation: cloneReservation(res)}
	if purchaseID != nil {
		p := s.purchases[*purchaseID]
		if p.Status == domain.PurchasePending {
			p.Status = domain.PurchaseConfirmed
			p.UpdatedAt = now
			s.purchases[p.ID] = p
		}
		cp := clonePurchase(p)
		out.Purchase = &cp
	}

	return out, nil
}

// Release returns the reserved numbers to the pool and cancels the pending
// purchase bound to the token, if any.
func (s *Store) Release(ctx context.Context, token uuid.UUID, now time.Time) (*repository.Resolution, error) {
	const op = "memory.Store.Release"

	res, e, err := s.lockReservation(token)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	defer e.mu.Unlock()

	if res.Status != domain.ReservationActive {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrAlreadyResolved)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.releaseLocked(e, res, now)
	return &out, nil
}

// ExpireReservations releases every active reservation whose deadline is at
// or before now.
func (s *Store) ExpireReservations(ctx context.Context, now time.Time) ([]repository.Resolution, error) {
	const op = "memory.Store.ExpireReservations"

	s.mu.RLock()
	var due []uuid.UUID
	for token, res := range s.reservations {
		if res.Status == domain.ReservationActive && !res.ExpiresAt.After(now) {
			due = append(due, token)
		}
	}
	s.mu.RUnlock()

	var out []repository.Resolution
	for _, token := range due {
		if err := ctx.Err(); err != nil {
			return out, fmt.Errorf("%s:%w", op, err)
		}

		res, e, err := s.lockReservation(token)
		if err != nil {
			continue
		}

		if res.Status == domain.ReservationActive && !res.ExpiresAt.After(now) {
			s.mu.Lock()
			out = append(out, s.releaseLocked(e, res, now))
			s.mu.Unlock()
		}

		e.mu.Unlock()
	}

	return out, nil
}

func (s *Store) GetReservation(ctx context.Context, token uuid.UUID) (*domain.Reservation, error) {
	const op = "memory.Store.GetReservation"

	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.reservations[token]
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	out := cloneReservation(res)
	return &out, nil
}

func (s *Store) ListNumbers(
	ctx context.Context,
	raffleID uuid.UUID,
	f repository.NumberFilter,
) ([]domain.RaffleNumber, error) {
	const op = "memory.Store.ListNumbers"

	e, err := s.lockRaffle(raffleID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	defer e.mu.Unlock()

	out := make([]domain.RaffleNumber, 0)
	skipped := 0
	for i := range e.slots {
		if f.Status != "" && e.slots[i].status != f.Status {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
		out = append(out, numberFromSlot(raffleID, i+1, e.slots[i]))
	}

	return out, nil
}

func (s *Store) CountNumbers(ctx context.Context, raffleID uuid.UUID) (*domain.NumberCounts, error) {
	const op = "memory.Store.CountNumbers"

	e, err := s.lockRaffle(raffleID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	defer e.mu.Unlock()

	c := countSlots(e.slots)
	return &c, nil
}

func (s *Store) RaffleStats(ctx context.Context, raffleID uuid.UUID) (*domain.RaffleStats, error) {
	const op = "memory.Store.RaffleStats"

	e, err := s.lockRaffle(raffleID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	defer e.mu.Unlock()

	st := &domain.RaffleStats{RaffleID: raffleID, NumberCounts: countSlots(e.slots)}

	s.mu.RLock()
	for _, p := range s.purchases {
		if p.RaffleID == raffleID && p.Status == domain.PurchaseConfirmed {
			st.RevenueCents += p.TotalCents
		}
	}
	s.mu.RUnlock()

	if st.Total > 0 {
		st.ProgressPercentage = float64(st.Sold) / float64(st.Total) * 100
	}

	return st, nil
}

func (s *Store) AdminStats(ctx context.Context) (*domain.AdminStats, error) {
	s.mu.RLock()
	entries := make([]*raffleEntry, 0, len(s.raffles))
	for _, e := range s.raffles {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	st := &domain.AdminStats{}
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			st.TotalRaffles++
			switch e.raffle.Status {
			case domain.RaffleActive:
				st.ActiveRaffles++
			case domain.RaffleCompleted:
				st.CompletedRaffles++
			}
			st.NumbersSold += countSlots(e.slots).Sold
		}
		e.mu.Unlock()
	}

	s.mu.RLock()
	for _, p := range s.purchases {
		if p.Status == domain.PurchaseConfirmed {
			st.TotalPurchases++
			st.RevenueCents += p.TotalCents
		}
	}
	s.mu.RUnlock()

	return st, nil
}

// CreatePurchase stores a pending purchase bound to an active reservation.
func (s *Store) CreatePurchase(ctx context.Context, p domain.Purchase) error {
	const op = "memory.Store.CreatePurchase"

	res, e, err := s.lockReservation(p.ReservationToken)
	if err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}
	defer e.mu.Unlock()

	if res.Status != domain.ReservationActive {
		return fmt.Errorf("%s:%w", op, repository.ErrAlreadyResolved)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.purchases[p.ID]; ok {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}
	if _, ok := s.byToken[p.ReservationToken]; ok {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}
	if p.SessionID != "" {
		if _, ok := s.bySession[p.SessionID]; ok {
			return fmt.Errorf("%s:%w", op, repository.ErrConflict)
		}
		s.bySession[p.SessionID] = p.ID
	}

	s.purchases[p.ID] = clonePurchase(p)
	s.byToken[p.ReservationToken] = p.ID

	return nil
}

// AttachSession records the payment session created for a purchase.
func (s *Store) AttachSession(
	ctx context.Context,
	purchaseID uuid.UUID,
	sessionID, checkoutURL string,
	now time.Time,
) error {
	const op = "memory.Store.AttachSession"

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.purchases[purchaseID]
	if !ok {
		return fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	if other, ok := s.bySession[sessionID]; ok && other != purchaseID {
		return fmt.Errorf("%s:%w", op, repository.ErrConflict)
	}

	if p.SessionID != "" && p.SessionID != sessionID {
		delete(s.bySession, p.SessionID)
	}

	p.SessionID = sessionID
	p.CheckoutURL = checkoutURL
	p.UpdatedAt = now
	s.purchases[purchaseID] = p
	s.bySession[sessionID] = purchaseID

	return nil
}

func (s *Store) GetPurchase(ctx context.Context, id uuid.UUID) (*domain.Purchase, error) {
	const op = "memory.Store.GetPurchase"

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.purchases[id]
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	out := clonePurchase(p)
	return &out, nil
}

func (s *Store) GetPurchaseBySession(ctx context.Context, sessionID string) (*domain.Purchase, error) {
	const op = "memory.Store.GetPurchaseBySession"

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySession[sessionID]
	if !ok {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNotFound)
	}

	out := clonePurchase(s.purchases[id])
	return &out, nil
}

// ListPurchases returns purchases newest first. uuid.Nil lists every raffle.
func (s *Store) ListPurchases(ctx context.Context, raffleID uuid.UUID) ([]domain.Purchase, error) {
	s.mu.RLock()
	out := make([]domain.Purchase, 0)
	for _, p := range s.purchases {
		if raffleID == uuid.Nil || p.RaffleID == raffleID {
			out = append(out, clonePurchase(p))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

// DrawWinner picks the winner from a snapshot of the sold numbers taken under
// the raffle lock, completes the raffle and releases outstanding reservations.
func (s *Store) DrawWinner(
	ctx context.Context,
	raffleID uuid.UUID,
	pick repository.PickFunc,
	now time.Time,
) (*repository.DrawOutcome, error) {
	const op = "memory.Store.DrawWinner"

	e, err := s.lockRaffle(raffleID)
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}
	defer e.mu.Unlock()

	switch e.raffle.Status {
	case domain.RaffleActive:
	case domain.RaffleCompleted:
		return nil, fmt.Errorf("%s:%w", op, repository.ErrRaffleCompleted)
	default:
		return nil, fmt.Errorf("%s:%w", op, repository.ErrRaffleNotActive)
	}

	var sold []int
	for i, sl := range e.slots {
		if sl.status == domain.NumberSold {
			sold = append(sold, i+1)
		}
	}

	if len(sold) == 0 {
		return nil, fmt.Errorf("%s:%w", op, repository.ErrNoSoldNumbers)
	}

	winner, digest, err := pick(slices.Clone(sold))
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	if !e.raffle.InRange(winner) || e.slots[winner-1].status != domain.NumberSold {
		return nil, fmt.Errorf("%s: winner %d is not sold:%w", op, winner, repository.ErrConflict)
	}

	s.releaseAllLocked(e, now)

	drawnAt := now
	e.raffle.Status = domain.RaffleCompleted
	e.raffle.WinnerNumber = &winner
	e.raffle.DrawnAt = &drawnAt
	e.raffle.DrawDigest = digest
	e.raffle.UpdatedAt = now

	return &repository.DrawOutcome{
		Raffle: cloneRaffle(e.raffle),
		Number: numberFromSlot(raffleID, winner, e.slots[winner-1]),
		Sold:   sold,
	}, nil
}

// releaseAllLocked releases every active reservation of the raffle held by e.
// The caller holds e.mu and not s.mu.
func (s *Store) releaseAllLocked(e *raffleEntry, now time.Time) []repository.Resolution {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []repository.Resolution
	for _, res := range s.reservations {
		if res.RaffleID == e.raffle.ID && res.Status == domain.ReservationActive {
			out = append(out, s.releaseLocked(e, res, now))
		}
	}

	return out
}

// releaseLocked frees the numbers of res. The caller holds e.mu and s.mu.
func (s *Store) releaseLocked(e *raffleEntry, res domain.Reservation, now time.Time) repository.Resolution {
	for _, n := range res.Numbers {
		if sl := &e.slots[n-1]; sl.status == domain.NumberReserved && sl.token != nil && *sl.token == res.Token {
			*sl = slot{status: domain.NumberAvailable}
		}
	}

	resolvedAt := now
	res.Status = domain.ReservationReleased
	res.ResolvedAt = &resolvedAt
	s.reservations[res.Token] = res

	out := repository.Resolution{Reservation: cloneReservation(res)}
	if pid, ok := s.byToken[res.Token]; ok {
		p := s.purchases[pid]
		if p.Status == domain.PurchasePending {
			p.Status = domain.PurchaseCancelled
			p.UpdatedAt = now
			s.purchases[pid] = p
		}
		cp := clonePurchase(p)
		out.Purchase = &cp
	}

	return out
}

func countSlots(slots []slot) domain.NumberCounts {
	c := domain.NumberCounts{Total: int64(len(slots))}
	for _, sl := range slots {
		switch sl.status {
		case domain.NumberAvailable:
			c.Available++
		case domain.NumberReserved:
			c.Reserved++
		case domain.NumberSold:
			c.Sold++
		}
	}
	return c
}

func numberFromSlot(raffleID uuid.UUID, n int, sl slot) domain.RaffleNumber {
	rn := domain.RaffleNumber{
		RaffleID:   raffleID,
		Number:     n,
		Status:     sl.status,
		ReservedAt: sl.reservedAt,
		SoldAt:     sl.soldAt,
	}
	if sl.buyer != nil {
		b := *sl.buyer
		rn.Buyer = &b
	}
	if sl.token != nil {
		t := *sl.token
		rn.ReservationToken = &t
	}
	if sl.purchaseID != nil {
		p := *sl.purchaseID
		rn.PurchaseID = &p
	}
	return rn
}

func sortedCopy(in []int) []int {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

func cloneRaffle(r domain.Raffle) domain.Raffle {
	if r.WinnerNumber != nil {
		w := *r.WinnerNumber
		r.WinnerNumber = &w
	}
	if r.DrawnAt != nil {
		t := *r.DrawnAt
		r.DrawnAt = &t
	}
	return r
}

func cloneReservation(r domain.Reservation) domain.Reservation {
	r.Numbers = slices.Clone(r.Numbers)
	if r.ResolvedAt != nil {
		t := *r.ResolvedAt
		r.ResolvedAt = &t
	}
	return r
}

func clonePurchase(p domain.Purchase) domain.Purchase {
	p.Numbers = slices.Clone(p.Numbers)
	return p
}
