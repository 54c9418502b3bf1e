package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dave999999/SmartPick1-sub000/internal/domain"
)

// fakeReservationRepo serialises transactions with txMu, which stands in
// for the row locks the Postgres repository takes, and rolls back its
// state when fn returns an error.
type fakeReservationRepo struct {
	txMu sync.Mutex
	mu   sync.Mutex

	users        map[string]domain.User
	products     map[string]domain.Product
	businesses   map[string]domain.Business
	reservations map[string]domain.Reservation

	failCreateReservation error
}

func newFakeReservationRepo() *fakeReservationRepo {
	return &fakeReservationRepo{
		users:        make(map[string]domain.User),
		products:     make(map[string]domain.Product),
		businesses:   make(map[string]domain.Business),
		reservations: make(map[string]domain.Reservation),
	}
}

func (f *fakeReservationRepo) addBusiness(id, ownerID string) {
	f.businesses[id] = domain.Business{ID: id, OwnerID: ownerID, Name: "Bakery " + id, Address: "1 Main St"}
}

func (f *fakeReservationRepo) addProduct(id, businessID string, qty int, status domain.ProductStatus) {
	f.products[id] = domain.Product{ID: id, BusinessID: businessID, Title: "Bread " + id, Quantity: qty, Status: status}
}

func (f *fakeReservationRepo) addReservation(r domain.Reservation) {
	f.reservations[r.ID] = r
}

func (f *fakeReservationRepo) product(id string) domain.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id]
}

func (f *fakeReservationRepo) reservation(id string) domain.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reservations[id]
}

func (f *fakeReservationRepo) user(id string) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.users[id]
}

// reservedUnits sums the quantity of reserved rows held against a product.
func (f *fakeReservationRepo) reservedUnits(productID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, r := range f.reservations {
		if r.ProductID == productID && r.Status == domain.ReservationStatusReserved {
			total += r.Quantity
		}
	}
	return total
}

type fakeSnapshot struct {
	users        map[string]domain.User
	products     map[string]domain.Product
	reservations map[string]domain.Reservation
}

func (f *fakeReservationRepo) snapshot() fakeSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := fakeSnapshot{
		users:        make(map[string]domain.User, len(f.users)),
		products:     make(map[string]domain.Product, len(f.products)),
		reservations: make(map[string]domain.Reservation, len(f.reservations)),
	}
	for k, v := range f.users {
		s.users[k] = v
	}
	for k, v := range f.products {
		s.products[k] = v
	}
	for k, v := range f.reservations {
		s.reservations[k] = v
	}
	return s
}

func (f *fakeReservationRepo) restore(s fakeSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = s.users
	f.products = s.products
	f.reservations = s.reservations
}

func (f *fakeReservationRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()

	snap := f.snapshot()
	if err := fn(ctx); err != nil {
		f.restore(snap)
		return err
	}
	return nil
}

func (f *fakeReservationRepo) GetUserForUpdate(_ context.Context, userID string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		u = domain.User{ID: userID}
		f.users[userID] = u
	}
	return u, nil
}

func (f *fakeReservationRepo) ApplyPenalty(_ context.Context, userID string, count int, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.users[userID]
	u.ID = userID
	u.PenaltyCount = count
	u.PenaltyUntil = &until
	f.users[userID] = u
	return nil
}

func (f *fakeReservationRepo) GetProductForUpdate(_ context.Context, productID string) (domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeReservationRepo) GetProductOwner(_ context.Context, productID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return "", domain.ErrProductNotFound
	}
	b, ok := f.businesses[p.BusinessID]
	if !ok {
		return "", domain.ErrBusinessNotFound
	}
	return b.OwnerID, nil
}

func (f *fakeReservationRepo) UpdateProductStock(_ context.Context, productID string, quantity int, status domain.ProductStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Quantity = quantity
	p.Status = status
	f.products[productID] = p
	return nil
}

func (f *fakeReservationRepo) RestoreProductStock(_ context.Context, productID string, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Quantity += quantity
	if p.Status == domain.ProductStatusSoldOut {
		p.Status = domain.ProductStatusAvailable
	}
	f.products[productID] = p
	return nil
}

func (f *fakeReservationRepo) CountActiveReservations(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.reservations {
		if r.UserID == userID && r.Status == domain.ReservationStatusReserved {
			n++
		}
	}
	return n, nil
}

func (f *fakeReservationRepo) HasActiveReservation(_ context.Context, userID, productID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reservations {
		if r.UserID == userID && r.ProductID == productID && r.Status == domain.ReservationStatusReserved {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReservationRepo) CreateReservation(_ context.Context, r domain.Reservation) error {
	if f.failCreateReservation != nil {
		return f.failCreateReservation
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations[r.ID] = r
	return nil
}

func (f *fakeReservationRepo) GetReservationForUpdate(_ context.Context, reservationID string) (domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[reservationID]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return r, nil
}

func (f *fakeReservationRepo) UpdateReservationStatus(_ context.Context, reservationID string, status domain.ReservationStatus, redeemedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[reservationID]
	if !ok {
		return domain.ErrReservationNotFound
	}
	r.Status = status
	r.RedeemedAt = redeemedAt
	f.reservations[reservationID] = r
	return nil
}

func (f *fakeReservationRepo) LockExpiredReservations(_ context.Context, scope domain.SweepScope, now time.Time) ([]domain.ExpiredReservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ExpiredReservation
	for _, r := range f.reservations {
		if r.Status != domain.ReservationStatusReserved || !r.ExpiresAt.Before(now) {
			continue
		}
		if scope.UserID != "" && r.UserID != scope.UserID {
			continue
		}
		if scope.OwnerID != "" && f.ownerOfLocked(r.ProductID) != scope.OwnerID {
			continue
		}
		out = append(out, domain.ExpiredReservation{
			ID:           r.ID,
			ProductID:    r.ProductID,
			UserID:       r.UserID,
			Quantity:     r.Quantity,
			PenaltyCount: f.users[r.UserID].PenaltyCount,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReservationRepo) MarkReservationsExpired(_ context.Context, reservationIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range reservationIDs {
		r := f.reservations[id]
		r.Status = domain.ReservationStatusExpired
		f.reservations[id] = r
	}
	return nil
}

func (f *fakeReservationRepo) ListReservationsByUser(_ context.Context, userID string) ([]domain.ReservationView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewsLocked(func(r domain.Reservation) bool { return r.UserID == userID }), nil
}

func (f *fakeReservationRepo) ListReservationsByOwner(_ context.Context, ownerID string) ([]domain.ReservationView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewsLocked(func(r domain.Reservation) bool {
		return ownerID == "" || f.ownerOfLocked(r.ProductID) == ownerID
	}), nil
}

func (f *fakeReservationRepo) ownerOfLocked(productID string) string {
	return f.businesses[f.products[productID].BusinessID].OwnerID
}

func (f *fakeReservationRepo) viewsLocked(keep func(domain.Reservation) bool) []domain.ReservationView {
	var out []domain.ReservationView
	for _, r := range f.reservations {
		if !keep(r) {
			continue
		}
		p := f.products[r.ProductID]
		b := f.businesses[p.BusinessID]
		out = append(out, domain.ReservationView{
			Reservation:     r,
			ProductTitle:    p.Title,
			DiscountPrice:   p.DiscountPrice,
			PickupStart:     p.PickupStart,
			PickupEnd:       p.PickupEnd,
			BusinessID:      b.ID,
			BusinessName:    b.Name,
			BusinessAddress: b.Address,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReservedAt.Equal(out[j].ReservedAt) {
			return out[i].ReservedAt.After(out[j].ReservedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
