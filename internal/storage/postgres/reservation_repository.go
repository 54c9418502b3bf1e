package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dave999999/SmartPick1-sub000/internal/domain"
)

type ReservationRepository struct {
	querier
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{querier{pool: pool}}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetUserForUpdate creates the user's penalty row on first use and locks it.
func (r *ReservationRepository) GetUserForUpdate(ctx context.Context, userID string) (domain.User, error) {
	if _, err := r.exec(ctx, `INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, userID); err != nil {
		if isInvalidUUID(err) {
			return domain.User{}, domain.ErrInvalidID
		}
		return domain.User{}, fmt.Errorf("ensure user: %w", err)
	}

	const query = `SELECT id, penalty_count, penalty_until FROM users WHERE id = $1 FOR UPDATE`
	var u domain.User
	if err := r.queryRow(ctx, query, userID).Scan(&u.ID, &u.PenaltyCount, &u.PenaltyUntil); err != nil {
		return domain.User{}, fmt.Errorf("lock user: %w", err)
	}
	return u, nil
}

func (r *ReservationRepository) ApplyPenalty(ctx context.Context, userID string, count int, until time.Time) error {
	const stmt = `
UPDATE users
SET penalty_count = $2, penalty_until = $3, updated_at = NOW()
WHERE id = $1`
	if _, err := r.exec(ctx, stmt, userID, count, until); err != nil {
		return fmt.Errorf("apply penalty: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	p, err := scanProduct(r.queryRow(ctx, query, productID))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (r *ReservationRepository) GetProductOwner(ctx context.Context, productID string) (string, error) {
	const query = `
SELECT b.owner_id
FROM products p
JOIN businesses b ON b.id = p.business_id
WHERE p.id = $1`
	var ownerID string
	if err := r.queryRow(ctx, query, productID).Scan(&ownerID); err != nil {
		if isInvalidUUID(err) {
			return "", domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrProductNotFound
		}
		return "", fmt.Errorf("get product owner: %w", err)
	}
	return ownerID, nil
}

func (r *ReservationRepository) UpdateProductStock(ctx context.Context, productID string, quantity int, status domain.ProductStatus) error {
	const stmt = `UPDATE products SET quantity = $2, status = $3, updated_at = NOW() WHERE id = $1`
	tag, err := r.exec(ctx, stmt, productID, quantity, status)
	if err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// RestoreProductStock returns units to a product, reopening it only if the
// decrement had sold it out.
func (r *ReservationRepository) RestoreProductStock(ctx context.Context, productID string, quantity int) error {
	const stmt = `
UPDATE products
SET quantity = quantity + $2,
	status = CASE WHEN status = 'sold_out' THEN 'available' ELSE status END,
	updated_at = NOW()
WHERE id = $1`
	tag, err := r.exec(ctx, stmt, productID, quantity)
	if err != nil {
		return fmt.Errorf("restore product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ReservationRepository) CountActiveReservations(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM reservations WHERE user_id = $1 AND status = 'reserved'`
	var n int
	if err := r.queryRow(ctx, query, userID).Scan(&n); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count active reservations: %w", err)
	}
	return n, nil
}

func (r *ReservationRepository) HasActiveReservation(ctx context.Context, userID, productID string) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM reservations
	WHERE user_id = $1 AND product_id = $2 AND status = 'reserved'
)`
	var exists bool
	if err := r.queryRow(ctx, query, userID, productID).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check active reservation: %w", err)
	}
	return exists, nil
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, product_id, user_id, quantity, status, verification_code, reserved_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.exec(ctx, stmt,
		res.ID,
		res.ProductID,
		res.UserID,
		res.Quantity,
		res.Status,
		res.VerificationCode,
		res.ReservedAt,
		res.ExpiresAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateReservation
		}
		if isForeignKeyViolation(err) {
			return domain.ErrProductNotFound
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, error) {
	const query = `
SELECT id, product_id, user_id, quantity, status, reserved_at, expires_at, verification_code, redeemed_at
FROM reservations
WHERE id = $1
FOR UPDATE`

	var res domain.Reservation
	err := r.queryRow(ctx, query, reservationID).Scan(
		&res.ID,
		&res.ProductID,
		&res.UserID,
		&res.Quantity,
		&res.Status,
		&res.ReservedAt,
		&res.ExpiresAt,
		&res.VerificationCode,
		&res.RedeemedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	return res, nil
}

func (r *ReservationRepository) UpdateReservationStatus(ctx context.Context, reservationID string, status domain.ReservationStatus, redeemedAt *time.Time) error {
	const stmt = `
UPDATE reservations
SET status = $2, redeemed_at = $3, updated_at = NOW()
WHERE id = $1`
	tag, err := r.exec(ctx, stmt, reservationID, status, redeemedAt)
	if err != nil {
		return fmt.Errorf("update reservation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

// expiredScopeFilter selects past-due reserved rows of r within a sweep
// scope: $1 now, $2 user id or '', $3 business owner id or ''.
const expiredScopeFilter = `
FROM reservations r
JOIN products p ON p.id = r.product_id
JOIN businesses b ON b.id = p.business_id
WHERE r.status = 'reserved'
	AND r.expires_at < $1
	AND ($2 = '' OR r.user_id::text = $2)
	AND ($3 = '' OR b.owner_id::text = $3)`

// LockExpiredReservations locks past-due reserved rows in scope together
// with their users' rows, so the returned penalty counts stay current until
// the transaction ends. User rows are locked first in user id order and
// reservation rows second in reservation id order, whatever the scope, so
// overlapping sweeps queue on the same first user instead of deadlocking.
func (r *ReservationRepository) LockExpiredReservations(ctx context.Context, scope domain.SweepScope, now time.Time) ([]domain.ExpiredReservation, error) {
	const lockUsers = `
SELECT u.id, u.penalty_count
FROM users u
WHERE u.id IN (SELECT r.user_id` + expiredScopeFilter + `)
ORDER BY u.id
FOR UPDATE`

	rows, err := r.query(ctx, lockUsers, now, scope.UserID, scope.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("lock expired reservation users: %w", err)
	}
	penalties := make(map[string]int)
	userIDs := make([]string, 0)
	for rows.Next() {
		var (
			id    string
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan expired reservation user: %w", err)
		}
		penalties[id] = count
		userIDs = append(userIDs, id)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate expired reservation users: %w", rows.Err())
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	// Only users locked above; a row of any other user belongs to another sweep.
	const lockReservations = `
SELECT r.id, r.product_id, r.user_id, r.quantity` + expiredScopeFilter + `
	AND r.user_id = ANY($4::uuid[])
ORDER BY r.id
FOR UPDATE OF r`

	rows, err = r.query(ctx, lockReservations, now, scope.UserID, scope.OwnerID, userIDs)
	if err != nil {
		return nil, fmt.Errorf("lock expired reservations: %w", err)
	}
	defer rows.Close()

	var expired []domain.ExpiredReservation
	for rows.Next() {
		var e domain.ExpiredReservation
		if err := rows.Scan(&e.ID, &e.ProductID, &e.UserID, &e.Quantity); err != nil {
			return nil, fmt.Errorf("scan expired reservation: %w", err)
		}
		e.PenaltyCount = penalties[e.UserID]
		expired = append(expired, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate expired reservations: %w", rows.Err())
	}
	return expired, nil
}

func (r *ReservationRepository) MarkReservationsExpired(ctx context.Context, reservationIDs []string) error {
	if len(reservationIDs) == 0 {
		return nil
	}
	const stmt = `
UPDATE reservations
SET status = 'expired', updated_at = NOW()
WHERE id = ANY($1::uuid[]) AND status = 'reserved'`
	if _, err := r.exec(ctx, stmt, reservationIDs); err != nil {
		return fmt.Errorf("mark reservations expired: %w", err)
	}
	return nil
}

const reservationViewSelect = `
SELECT r.id, r.product_id, r.user_id, r.quantity, r.status, r.reserved_at, r.expires_at,
	r.verification_code, r.redeemed_at,
	p.title, p.discount_price, p.pickup_start, p.pickup_end,
	b.id, b.name, b.address
FROM reservations r
JOIN products p ON p.id = r.product_id
JOIN businesses b ON b.id = p.business_id`

func (r *ReservationRepository) ListReservationsByUser(ctx context.Context, userID string) ([]domain.ReservationView, error) {
	query := reservationViewSelect + `
WHERE r.user_id = $1
ORDER BY r.reserved_at DESC, r.id`
	views, err := r.listViews(ctx, query, userID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list user reservations: %w", err)
	}
	return views, nil
}

func (r *ReservationRepository) ListReservationsByOwner(ctx context.Context, ownerID string) ([]domain.ReservationView, error) {
	query := reservationViewSelect + `
WHERE ($1 = '' OR b.owner_id::text = $1)
ORDER BY r.reserved_at DESC, r.id`
	views, err := r.listViews(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list partner reservations: %w", err)
	}
	return views, nil
}

func (r *ReservationRepository) listViews(ctx context.Context, query string, args ...any) ([]domain.ReservationView, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []domain.ReservationView{}
	for rows.Next() {
		var v domain.ReservationView
		if err := rows.Scan(
			&v.ID,
			&v.ProductID,
			&v.UserID,
			&v.Quantity,
			&v.Status,
			&v.ReservedAt,
			&v.ExpiresAt,
			&v.VerificationCode,
			&v.RedeemedAt,
			&v.ProductTitle,
			&v.DiscountPrice,
			&v.PickupStart,
			&v.PickupEnd,
			&v.BusinessID,
			&v.BusinessName,
			&v.BusinessAddress,
		); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}
