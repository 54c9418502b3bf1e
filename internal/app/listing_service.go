package app

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dave999999/SmartPick1-sub000/internal/clock"
	"github.com/dave999999/SmartPick1-sub000/internal/domain"
)

type ListingRepository interface {
	CreateBusiness(ctx context.Context, business domain.Business) error
	GetBusiness(ctx context.Context, businessID string) (domain.Business, error)
	CreateProduct(ctx context.Context, product domain.Product) error
	ListProductsByBusiness(ctx context.Context, businessID string) ([]domain.Product, error)
}

// ListingService lets partners publish the stock that reservations draw on.
type ListingService struct {
	repo  ListingRepository
	clock clock.Clock
}

func NewListingService(repo ListingRepository, clk clock.Clock) *ListingService {
	return &ListingService{
		repo:  repo,
		clock: clk,
	}
}

type CreateBusinessInput struct {
	Actor   domain.Actor
	Name    string
	Address string
}

func (s *ListingService) CreateBusiness(ctx context.Context, in CreateBusinessInput) (domain.Business, error) {
	if !in.Actor.CanManageBusinesses() {
		return domain.Business{}, domain.ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Business{}, domain.ErrBusinessNameMissing
	}

	business := domain.Business{
		ID:        newID(),
		OwnerID:   in.Actor.UserID,
		Name:      name,
		Address:   strings.TrimSpace(in.Address),
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateBusiness(ctx, business); err != nil {
		return domain.Business{}, err
	}
	return business, nil
}

type CreateProductInput struct {
	Actor         domain.Actor
	BusinessID    string
	Title         string
	Description   string
	OriginalPrice decimal.Decimal
	DiscountPrice decimal.Decimal
	Quantity      int
	PickupStart   time.Time
	PickupEnd     time.Time
	AvailableDate time.Time
	// ExpiresAt defaults to PickupEnd when zero.
	ExpiresAt time.Time
}

func (s *ListingService) CreateProduct(ctx context.Context, in CreateProductInput) (domain.Product, error) {
	if !in.Actor.CanManageBusinesses() {
		return domain.Product{}, domain.ErrForbidden
	}
	if in.BusinessID == "" {
		return domain.Product{}, domain.ErrInvalidID
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Product{}, domain.ErrProductTitleMissing
	}
	if in.Quantity <= 0 {
		return domain.Product{}, domain.ErrInvalidQuantity
	}
	if in.OriginalPrice.IsNegative() || in.DiscountPrice.IsNegative() || in.DiscountPrice.GreaterThan(in.OriginalPrice) {
		return domain.Product{}, domain.ErrInvalidPrice
	}
	if !in.PickupEnd.After(in.PickupStart) {
		return domain.Product{}, domain.ErrInvalidPickupWindow
	}

	business, err := s.repo.GetBusiness(ctx, in.BusinessID)
	if err != nil {
		return domain.Product{}, err
	}
	if in.Actor.Role != domain.RoleAdmin && business.OwnerID != in.Actor.UserID {
		return domain.Product{}, domain.ErrForbidden
	}

	now := s.clock.Now()
	availableDate := in.AvailableDate
	if availableDate.IsZero() {
		availableDate = now
	}
	expiresAt := in.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = in.PickupEnd
	}

	product := domain.Product{
		ID:            newID(),
		BusinessID:    business.ID,
		Title:         title,
		Description:   strings.TrimSpace(in.Description),
		OriginalPrice: in.OriginalPrice,
		DiscountPrice: in.DiscountPrice,
		Quantity:      in.Quantity,
		Status:        domain.ProductStatusAvailable,
		PickupStart:   in.PickupStart,
		PickupEnd:     in.PickupEnd,
		AvailableDate: availableDate,
		ExpiresAt:     expiresAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func (s *ListingService) ListProducts(ctx context.Context, businessID string) ([]domain.Product, error) {
	if businessID == "" {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListProductsByBusiness(ctx, businessID)
}
