package http

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dave999999/SmartPick1-sub000/internal/app"
	"github.com/dave999999/SmartPick1-sub000/internal/domain"
)

type mockReservations struct {
	mock.Mock
}

func (m *mockReservations) Create(ctx context.Context, in app.CreateReservationInput) (domain.Reservation, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.Reservation), args.Error(1)
}

func (m *mockReservations) Cancel(ctx context.Context, userID, reservationID string) error {
	return m.Called(ctx, userID, reservationID).Error(0)
}

func (m *mockReservations) Redeem(ctx context.Context, in app.RedeemInput) (domain.Reservation, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.Reservation), args.Error(1)
}

func (m *mockReservations) SweepExpired(ctx context.Context, scope domain.SweepScope) (int, error) {
	args := m.Called(ctx, scope)
	return args.Int(0), args.Error(1)
}

func (m *mockReservations) ListForUser(ctx context.Context, userID string) ([]domain.ReservationView, error) {
	args := m.Called(ctx, userID)
	views, _ := args.Get(0).([]domain.ReservationView)
	return views, args.Error(1)
}

func (m *mockReservations) ListForPartner(ctx context.Context, actor domain.Actor) ([]domain.ReservationView, error) {
	args := m.Called(ctx, actor)
	views, _ := args.Get(0).([]domain.ReservationView)
	return views, args.Error(1)
}

type mockListings struct {
	mock.Mock
}

func (m *mockListings) CreateBusiness(ctx context.Context, in app.CreateBusinessInput) (domain.Business, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.Business), args.Error(1)
}

func (m *mockListings) CreateProduct(ctx context.Context, in app.CreateProductInput) (domain.Product, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *mockListings) ListProducts(ctx context.Context, businessID string) ([]domain.Product, error) {
	args := m.Called(ctx, businessID)
	products, _ := args.Get(0).([]domain.Product)
	return products, args.Error(1)
}
