package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dave999999/SmartPick1-sub000/internal/app"
	"github.com/dave999999/SmartPick1-sub000/internal/domain"
)

type BusinessCreator interface {
	CreateBusiness(ctx context.Context, in app.CreateBusinessInput) (domain.Business, error)
}

type ProductCreator interface {
	CreateProduct(ctx context.Context, in app.CreateProductInput) (domain.Product, error)
}

type ProductLister interface {
	ListProducts(ctx context.Context, businessID string) ([]domain.Product, error)
}

type createBusinessRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Address string `json:"address" validate:"max=500"`
}

type businessResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

func HandleCreateBusiness(svc BusinessCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var req createBusinessRequest
		if reqErr := decodeRequest(w, r, &req, false); reqErr != nil {
			reqErr.write(w)
			return
		}

		b, err := svc.CreateBusiness(r.Context(), app.CreateBusinessInput{
			Actor:   actor,
			Name:    req.Name,
			Address: req.Address,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, businessResponse{
			ID:        b.ID,
			OwnerID:   b.OwnerID,
			Name:      b.Name,
			Address:   b.Address,
			CreatedAt: b.CreatedAt,
		})
	}
}

type createProductRequest struct {
	BusinessID    string           `json:"businessId" validate:"required,uuid"`
	Title         string           `json:"title" validate:"required,max=200"`
	Description   string           `json:"description" validate:"max=2000"`
	OriginalPrice *decimal.Decimal `json:"originalPrice" validate:"required"`
	DiscountPrice *decimal.Decimal `json:"discountPrice" validate:"required"`
	Quantity      int              `json:"quantity" validate:"required,min=1"`
	PickupStart   *time.Time       `json:"pickupStart" validate:"required"`
	PickupEnd     *time.Time       `json:"pickupEnd" validate:"required"`
	AvailableDate *time.Time       `json:"availableDate"`
	ExpiresAt     *time.Time       `json:"expiresAt"`
}

type productResponse struct {
	ID            string          `json:"id"`
	BusinessID    string          `json:"businessId"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	OriginalPrice decimal.Decimal `json:"originalPrice"`
	DiscountPrice decimal.Decimal `json:"discountPrice"`
	Quantity      int             `json:"quantity"`
	Status        string          `json:"status"`
	PickupStart   time.Time       `json:"pickupStart"`
	PickupEnd     time.Time       `json:"pickupEnd"`
	AvailableDate time.Time       `json:"availableDate"`
	ExpiresAt     time.Time       `json:"expiresAt"`
}

func HandleCreateProduct(svc ProductCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var req createProductRequest
		if reqErr := decodeRequest(w, r, &req, false); reqErr != nil {
			reqErr.write(w)
			return
		}

		in := app.CreateProductInput{
			Actor:         actor,
			BusinessID:    req.BusinessID,
			Title:         req.Title,
			Description:   req.Description,
			OriginalPrice: *req.OriginalPrice,
			DiscountPrice: *req.DiscountPrice,
			Quantity:      req.Quantity,
			PickupStart:   *req.PickupStart,
			PickupEnd:     *req.PickupEnd,
		}
		if req.AvailableDate != nil {
			in.AvailableDate = *req.AvailableDate
		}
		if req.ExpiresAt != nil {
			in.ExpiresAt = *req.ExpiresAt
		}

		p, err := svc.CreateProduct(r.Context(), in)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toProductResponse(p))
	}
}

type listProductsResponse struct {
	Products []productResponse `json:"products"`
}

func HandleListProducts(svc ProductLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireActor(w, r); !ok {
			return
		}

		businessID := r.URL.Query().Get("businessId")
		if err := validate.Var(businessID, "required,uuid"); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, errorResponse{
				Error:   "invalid fields: businessId",
				Code:    codeValidationFailed,
				Details: []fieldError{{Field: "businessId", Rule: "uuid"}},
			})
			return
		}

		products, err := svc.ListProducts(r.Context(), businessID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		out := make([]productResponse, 0, len(products))
		for _, p := range products {
			out = append(out, toProductResponse(p))
		}
		writeJSON(w, http.StatusOK, listProductsResponse{Products: out})
	}
}

func toProductResponse(p domain.Product) productResponse {
	return productResponse{
		ID:            p.ID,
		BusinessID:    p.BusinessID,
		Title:         p.Title,
		Description:   p.Description,
		OriginalPrice: p.OriginalPrice,
		DiscountPrice: p.DiscountPrice,
		Quantity:      p.Quantity,
		Status:        string(p.Status),
		PickupStart:   p.PickupStart,
		PickupEnd:     p.PickupEnd,
		AvailableDate: p.AvailableDate,
		ExpiresAt:     p.ExpiresAt,
	}
}
