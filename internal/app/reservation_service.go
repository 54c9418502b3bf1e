package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dave999999/SmartPick1-sub000/internal/clock"
	"github.com/dave999999/SmartPick1-sub000/internal/domain"
)

// ReservationRepository is the transactional store behind the reservation
// lifecycle. Methods called inside WithTx run in the same transaction;
// the ForUpdate/Lock methods take row locks held until it ends.
type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	GetUserForUpdate(ctx context.Context, userID string) (domain.User, error)
	ApplyPenalty(ctx context.Context, userID string, count int, until time.Time) error

	GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error)
	GetProductOwner(ctx context.Context, productID string) (string, error)
	UpdateProductStock(ctx context.Context, productID string, quantity int, status domain.ProductStatus) error
	RestoreProductStock(ctx context.Context, productID string, quantity int) error

	CountActiveReservations(ctx context.Context, userID string) (int, error)
	HasActiveReservation(ctx context.Context, userID, productID string) (bool, error)
	CreateReservation(ctx context.Context, r domain.Reservation) error
	GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, error)
	UpdateReservationStatus(ctx context.Context, reservationID string, status domain.ReservationStatus, redeemedAt *time.Time) error

	LockExpiredReservations(ctx context.Context, scope domain.SweepScope, now time.Time) ([]domain.ExpiredReservation, error)
	MarkReservationsExpired(ctx context.Context, reservationIDs []string) error

	ListReservationsByUser(ctx context.Context, userID string) ([]domain.ReservationView, error)
	// ListReservationsByOwner lists reservations on businesses owned by
	// ownerID; an empty ownerID lists all of them.
	ListReservationsByOwner(ctx context.Context, ownerID string) ([]domain.ReservationView, error)
}

// ReservationService enforces the reservation lifecycle:
// reserved -> redeemed | cancelled | expired, with paired stock updates.
type ReservationService struct {
	repo      ReservationRepository
	clock     clock.Clock
	publisher EventPublisher
	logger    *slog.Logger
	newCode   func() (string, error)
	tracer    trace.Tracer
	metrics   lifecycleMetrics
}

// holdDuration is fixed; a reservation is never extended.
const holdDuration = 30 * time.Minute

func NewReservationService(repo ReservationRepository, clk clock.Clock, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		repo:      repo,
		clock:     clk,
		publisher: nopPublisher{},
		logger:    slog.Default(),
		newCode:   newVerificationCode,
		tracer:    otel.Tracer(instrumentationName),
		metrics:   newLifecycleMetrics(otel.Meter(instrumentationName)),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationServiceOption func(*ReservationService)

// WithPublisher sets where committed lifecycle events are sent.
func WithPublisher(p EventPublisher) ReservationServiceOption {
	return func(s *ReservationService) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithLogger(l *slog.Logger) ReservationServiceOption {
	return func(s *ReservationService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCodeGenerator replaces the verification code source.
func WithCodeGenerator(fn func() (string, error)) ReservationServiceOption {
	return func(s *ReservationService) {
		if fn != nil {
			s.newCode = fn
		}
	}
}

type CreateReservationInput struct {
	UserID    string
	ProductID string
	Quantity  int
}

// Create holds quantity units of a product for the user.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "reservations.create", trace.WithAttributes(
		attribute.String("user_id", in.UserID),
		attribute.String("product_id", in.ProductID),
		attribute.Int("quantity", in.Quantity),
	))
	defer span.End()

	if in.Quantity <= 0 {
		return domain.Reservation{}, domain.ErrInvalidQuantity
	}
	if in.UserID == "" || in.ProductID == "" {
		return domain.Reservation{}, domain.ErrInvalidID
	}

	code, err := s.newCode()
	if err != nil {
		span.RecordError(err)
		return domain.Reservation{}, fmt.Errorf("generate verification code: %w", err)
	}

	now := s.clock.Now()
	var result domain.Reservation

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		user, err := s.repo.GetUserForUpdate(txCtx, in.UserID)
		if err != nil {
			return err
		}
		if user.PenaltyActive(now) {
			return &domain.PenaltyError{Until: *user.PenaltyUntil}
		}

		active, err := s.repo.CountActiveReservations(txCtx, in.UserID)
		if err != nil {
			return err
		}
		if active >= domain.MaxActiveReservations {
			return domain.ErrReservationLimitReached
		}

		exists, err := s.repo.HasActiveReservation(txCtx, in.UserID, in.ProductID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateReservation
		}

		product, err := s.repo.GetProductForUpdate(txCtx, in.ProductID)
		if err != nil {
			return err
		}
		switch {
		case product.Status == domain.ProductStatusSoldOut:
			return domain.ErrInsufficientStock
		case product.Status != domain.ProductStatusAvailable:
			return domain.ErrProductUnavailable
		case product.Quantity < in.Quantity:
			return domain.ErrInsufficientStock
		}

		remaining := product.Quantity - in.Quantity
		if err := s.repo.UpdateProductStock(txCtx, product.ID, remaining, product.StatusAfterDecrement(remaining)); err != nil {
			return err
		}

		reservation := domain.Reservation{
			ID:               newID(),
			ProductID:        product.ID,
			UserID:           in.UserID,
			Quantity:         in.Quantity,
			Status:           domain.ReservationStatusReserved,
			ReservedAt:       now,
			ExpiresAt:        now.Add(holdDuration),
			VerificationCode: code,
		}
		if err := s.repo.CreateReservation(txCtx, reservation); err != nil {
			return err
		}

		result = reservation
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return domain.Reservation{}, err
	}

	s.metrics.created.Add(ctx, 1)
	s.logger.InfoContext(ctx, "reservation created",
		slog.String("reservation_id", result.ID),
		slog.String("product_id", result.ProductID),
		slog.String("user_id", result.UserID),
		slog.Int("quantity", result.Quantity),
	)
	s.publish(ctx, domain.EventReservationCreated, result, now)
	return result, nil
}

// Cancel releases the user's own active reservation and returns its stock.
func (s *ReservationService) Cancel(ctx context.Context, userID, reservationID string) error {
	ctx, span := s.tracer.Start(ctx, "reservations.cancel", trace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.String("reservation_id", reservationID),
	))
	defer span.End()

	if reservationID == "" {
		return domain.ErrInvalidID
	}

	now := s.clock.Now()
	var cancelled domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		if r.UserID != userID {
			return domain.ErrNotReservationOwner
		}
		if r.Status != domain.ReservationStatusReserved {
			return domain.ErrReservationNotActive
		}
		// Past-due holds are settled by the sweep, which also applies the penalty.
		if !r.IsActive(now) {
			return domain.ErrReservationExpired
		}

		if err := s.repo.UpdateReservationStatus(txCtx, r.ID, domain.ReservationStatusCancelled, nil); err != nil {
			return err
		}
		if err := s.repo.RestoreProductStock(txCtx, r.ProductID, r.Quantity); err != nil {
			return err
		}

		r.Status = domain.ReservationStatusCancelled
		cancelled = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	s.metrics.cancelled.Add(ctx, 1)
	s.logger.InfoContext(ctx, "reservation cancelled",
		slog.String("reservation_id", cancelled.ID),
		slog.String("user_id", cancelled.UserID),
	)
	s.publish(ctx, domain.EventReservationCancelled, cancelled, now)
	return nil
}

type RedeemInput struct {
	Actor            domain.Actor
	ReservationID    string
	VerificationCode string
}

// Redeem consumes an active reservation at pickup. Stock is not restored.
func (s *ReservationService) Redeem(ctx context.Context, in RedeemInput) (domain.Reservation, error) {
	ctx, span := s.tracer.Start(ctx, "reservations.redeem", trace.WithAttributes(
		attribute.String("actor_id", in.Actor.UserID),
		attribute.String("actor_role", string(in.Actor.Role)),
		attribute.String("reservation_id", in.ReservationID),
	))
	defer span.End()

	if !in.Actor.CanManageBusinesses() {
		return domain.Reservation{}, domain.ErrForbidden
	}
	if in.ReservationID == "" {
		return domain.Reservation{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var result domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetReservationForUpdate(txCtx, in.ReservationID)
		if err != nil {
			return err
		}

		ownerID, err := s.repo.GetProductOwner(txCtx, r.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) || errors.Is(err, domain.ErrBusinessNotFound) {
				return domain.ErrReservationNotFound
			}
			return err
		}
		if in.Actor.Role == domain.RolePartner && ownerID != in.Actor.UserID {
			return domain.ErrNotBusinessOwner
		}

		if r.Status != domain.ReservationStatusReserved {
			return domain.ErrReservationNotActive
		}
		if !r.IsActive(now) {
			return domain.ErrReservationExpired
		}
		if !verificationCodeMatches(r.VerificationCode, in.VerificationCode) {
			return domain.ErrInvalidVerificationCode
		}

		redeemedAt := now
		if err := s.repo.UpdateReservationStatus(txCtx, r.ID, domain.ReservationStatusRedeemed, &redeemedAt); err != nil {
			return err
		}

		r.Status = domain.ReservationStatusRedeemed
		r.RedeemedAt = &redeemedAt
		result = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return domain.Reservation{}, err
	}

	s.metrics.redeemed.Add(ctx, 1)
	s.logger.InfoContext(ctx, "reservation redeemed",
		slog.String("reservation_id", result.ID),
		slog.String("actor_id", in.Actor.UserID),
	)
	s.publish(ctx, domain.EventReservationRedeemed, result, now)
	return result, nil
}

// SweepExpired settles every reserved row past its expiry within scope:
// the rows become expired, their stock returns to the products, and each
// affected user receives one penalty escalation. Returns the number of
// reservations settled.
func (s *ReservationService) SweepExpired(ctx context.Context, scope domain.SweepScope) (int, error) {
	ctx, span := s.tracer.Start(ctx, "reservations.sweep_expired", trace.WithAttributes(
		attribute.String("scope.user_id", scope.UserID),
		attribute.String("scope.owner_id", scope.OwnerID),
	))
	defer span.End()

	now := s.clock.Now()
	var (
		swept     []domain.ExpiredReservation
		penalised int
	)

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		rows, err := s.repo.LockExpiredReservations(txCtx, scope, now)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		ids := make([]string, 0, len(rows))
		for _, r := range rows {
			ids = append(ids, r.ID)
		}
		if err := s.repo.MarkReservationsExpired(txCtx, ids); err != nil {
			return err
		}

		// One escalation per user per sweep, from the count read under lock.
		penalisedUsers := make(map[string]struct{}, len(rows))
		for _, r := range rows {
			if _, ok := penalisedUsers[r.UserID]; ok {
				continue
			}
			penalisedUsers[r.UserID] = struct{}{}
			count, until := penaltyFor(r.PenaltyCount, now)
			if err := s.repo.ApplyPenalty(txCtx, r.UserID, count, until); err != nil {
				return err
			}
		}

		// Restore in product id order so concurrent sweeps lock products consistently.
		restore := make(map[string]int)
		for _, r := range rows {
			restore[r.ProductID] += r.Quantity
		}
		productIDs := make([]string, 0, len(restore))
		for id := range restore {
			productIDs = append(productIDs, id)
		}
		sort.Strings(productIDs)
		for _, id := range productIDs {
			if err := s.repo.RestoreProductStock(txCtx, id, restore[id]); err != nil {
				return err
			}
		}

		swept = rows
		penalised = len(penalisedUsers)
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	span.SetAttributes(attribute.Int("processed_count", len(swept)))
	if len(swept) == 0 {
		return 0, nil
	}

	s.metrics.expired.Add(ctx, int64(len(swept)))
	s.metrics.penalties.Add(ctx, int64(penalised))
	s.logger.InfoContext(ctx, "expired reservations swept",
		slog.Int("processed_count", len(swept)),
		slog.Int("penalised_users", penalised),
	)
	for _, r := range swept {
		s.publish(ctx, domain.EventReservationExpired, domain.Reservation{
			ID:        r.ID,
			ProductID: r.ProductID,
			UserID:    r.UserID,
			Quantity:  r.Quantity,
		}, now)
	}
	return len(swept), nil
}

// ListForUser returns the user's reservations, newest first, after settling
// any of them that have expired.
func (s *ReservationService) ListForUser(ctx context.Context, userID string) ([]domain.ReservationView, error) {
	if userID == "" {
		return nil, domain.ErrInvalidID
	}
	if _, err := s.SweepExpired(ctx, domain.SweepScope{UserID: userID}); err != nil {
		return nil, fmt.Errorf("sweep user reservations: %w", err)
	}
	return s.repo.ListReservationsByUser(ctx, userID)
}

// ListForPartner returns reservations on the actor's businesses, or on all
// businesses for admins, after settling expired ones. Verification codes
// are withheld.
func (s *ReservationService) ListForPartner(ctx context.Context, actor domain.Actor) ([]domain.ReservationView, error) {
	if !actor.CanManageBusinesses() {
		return nil, domain.ErrForbidden
	}
	ownerID := actor.UserID
	if actor.Role == domain.RoleAdmin {
		ownerID = ""
	}
	if _, err := s.SweepExpired(ctx, domain.SweepScope{OwnerID: ownerID}); err != nil {
		return nil, fmt.Errorf("sweep partner reservations: %w", err)
	}
	views, err := s.repo.ListReservationsByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	// The code is the customer's proof of presence at pickup.
	for i := range views {
		views[i].VerificationCode = ""
	}
	return views, nil
}

func (s *ReservationService) publish(ctx context.Context, typ domain.EventType, r domain.Reservation, at time.Time) {
	event := domain.ReservationEvent{
		Type:          typ,
		ReservationID: r.ID,
		ProductID:     r.ProductID,
		UserID:        r.UserID,
		Quantity:      r.Quantity,
		OccurredAt:    at,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "publish reservation event failed",
			slog.String("type", string(typ)),
			slog.String("reservation_id", r.ID),
			slog.Any("error", err),
		)
	}
}
