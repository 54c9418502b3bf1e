package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dave999999/SmartPick1-sub000/internal/domain"
)

type ListingRepository struct {
	querier
}

func NewListingRepository(pool *pgxpool.Pool) *ListingRepository {
	return &ListingRepository{querier{pool: pool}}
}

func (r *ListingRepository) CreateBusiness(ctx context.Context, b domain.Business) error {
	const stmt = `
INSERT INTO businesses (id, owner_id, name, address, created_at)
VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.exec(ctx, stmt, b.ID, b.OwnerID, b.Name, b.Address, b.CreatedAt); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create business: %w", err)
	}
	return nil
}

func (r *ListingRepository) GetBusiness(ctx context.Context, businessID string) (domain.Business, error) {
	const query = `SELECT id, owner_id, name, address, created_at FROM businesses WHERE id = $1`
	var b domain.Business
	err := r.queryRow(ctx, query, businessID).Scan(&b.ID, &b.OwnerID, &b.Name, &b.Address, &b.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Business{}, domain.ErrInvalidID
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Business{}, domain.ErrBusinessNotFound
		}
		return domain.Business{}, fmt.Errorf("get business: %w", err)
	}
	return b, nil
}

func (r *ListingRepository) CreateProduct(ctx context.Context, p domain.Product) error {
	const stmt = `
INSERT INTO products (
	id, business_id, title, description, original_price, discount_price, quantity, status,
	pickup_start, pickup_end, available_date, expires_at, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.exec(ctx, stmt,
		p.ID,
		p.BusinessID,
		p.Title,
		p.Description,
		p.OriginalPrice,
		p.DiscountPrice,
		p.Quantity,
		p.Status,
		p.PickupStart,
		p.PickupEnd,
		p.AvailableDate,
		p.ExpiresAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrBusinessNotFound
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *ListingRepository) ListProductsByBusiness(ctx context.Context, businessID string) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + `
FROM products
WHERE business_id = $1
ORDER BY created_at DESC, id`

	rows, err := r.query(ctx, query, businessID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

const productColumns = `id, business_id, title, description, original_price, discount_price, quantity, status,
	pickup_start, pickup_end, available_date, expires_at, created_at, updated_at`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.BusinessID,
		&p.Title,
		&p.Description,
		&p.OriginalPrice,
		&p.DiscountPrice,
		&p.Quantity,
		&p.Status,
		&p.PickupStart,
		&p.PickupEnd,
		&p.AvailableDate,
		&p.ExpiresAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
