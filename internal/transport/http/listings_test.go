package http

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dave999999/SmartPick1-sub000/internal/app"
	"github.com/dave999999/SmartPick1-sub000/internal/domain"
)

func TestHandleCreateBusiness(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		s := newTestServer(t)
		s.listings.On("CreateBusiness", mock.Anything, app.CreateBusinessInput{
			Actor:   testPartner,
			Name:    "Corner Bakery",
			Address: "Main 1",
		}).Return(domain.Business{
			ID:        testBusinessID,
			OwnerID:   testPartner.UserID,
			Name:      "Corner Bakery",
			Address:   "Main 1",
			CreatedAt: testNow,
		}, nil).Once()

		rec := s.do(t, &testPartner, http.MethodPost, "/businesses", `{"name":"Corner Bakery","address":"Main 1"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp businessResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, testBusinessID, resp.ID)
		assert.Equal(t, testPartner.UserID, resp.OwnerID)
	})

	t.Run("plain users are forbidden", func(t *testing.T) {
		s := newTestServer(t)
		s.listings.On("CreateBusiness", mock.Anything, mock.Anything).Return(domain.Business{}, domain.ErrForbidden).Once()

		rec := s.do(t, &testUser, http.MethodPost, "/businesses", `{"name":"Corner Bakery"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, codeForbidden, decodeError(t, rec).Code)
	})

	t.Run("name required", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, &testPartner, http.MethodPost, "/businesses", `{"address":"Main 1"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []fieldError{{Field: "name", Rule: "required"}}, decodeError(t, rec).Details)
	})
}

func TestHandleCreateProduct(t *testing.T) {
	t.Parallel()

	body := `{
		"businessId":"` + testBusinessID + `",
		"title":"Surprise bag",
		"originalPrice":"10.00",
		"discountPrice":"3.50",
		"quantity":5,
		"pickupStart":"2025-01-01T17:00:00Z",
		"pickupEnd":"2025-01-01T19:00:00Z"
	}`

	t.Run("success", func(t *testing.T) {
		s := newTestServer(t)
		pickupStart := time.Date(2025, 1, 1, 17, 0, 0, 0, time.UTC)
		pickupEnd := time.Date(2025, 1, 1, 19, 0, 0, 0, time.UTC)

		s.listings.On("CreateProduct", mock.Anything, mock.MatchedBy(func(in app.CreateProductInput) bool {
			return in.Actor == testPartner &&
				in.BusinessID == testBusinessID &&
				in.Title == "Surprise bag" &&
				in.OriginalPrice.Equal(decimal.NewFromInt(10)) &&
				in.DiscountPrice.Equal(decimal.RequireFromString("3.5")) &&
				in.Quantity == 5 &&
				in.PickupStart.Equal(pickupStart) &&
				in.PickupEnd.Equal(pickupEnd) &&
				in.AvailableDate.IsZero() &&
				in.ExpiresAt.IsZero()
		})).Return(domain.Product{
			ID:            testProductID,
			BusinessID:    testBusinessID,
			Title:         "Surprise bag",
			OriginalPrice: decimal.NewFromInt(10),
			DiscountPrice: decimal.RequireFromString("3.5"),
			Quantity:      5,
			Status:        domain.ProductStatusAvailable,
			PickupStart:   pickupStart,
			PickupEnd:     pickupEnd,
		}, nil).Once()

		rec := s.do(t, &testPartner, http.MethodPost, "/products", body)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp productResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, testProductID, resp.ID)
		assert.Equal(t, "available", resp.Status)
		assert.True(t, resp.DiscountPrice.Equal(decimal.RequireFromString("3.5")))
	})

	t.Run("missing prices and window", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, &testPartner, http.MethodPost, "/products",
			`{"businessId":"`+testBusinessID+`","title":"Surprise bag","quantity":5}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		resp := decodeError(t, rec)
		assert.Equal(t, codeValidationFailed, resp.Code)
		assert.ElementsMatch(t, []fieldError{
			{Field: "originalPrice", Rule: "required"},
			{Field: "discountPrice", Rule: "required"},
			{Field: "pickupStart", Rule: "required"},
			{Field: "pickupEnd", Rule: "required"},
		}, resp.Details)
	})

	t.Run("service validation maps to 400", func(t *testing.T) {
		for _, tc := range []struct {
			err  error
			code string
		}{
			{domain.ErrInvalidPrice, codeInvalidPrice},
			{domain.ErrInvalidPickupWindow, codeInvalidPickupWindow},
		} {
			s := newTestServer(t)
			s.listings.On("CreateProduct", mock.Anything, mock.Anything).Return(domain.Product{}, tc.err).Once()

			rec := s.do(t, &testPartner, http.MethodPost, "/products", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.code, decodeError(t, rec).Code)
		}
	})

	t.Run("someone else's business", func(t *testing.T) {
		s := newTestServer(t)
		s.listings.On("CreateProduct", mock.Anything, mock.Anything).Return(domain.Product{}, domain.ErrNotBusinessOwner).Once()

		rec := s.do(t, &testPartner, http.MethodPost, "/products", body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHandleListProducts(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		s := newTestServer(t)
		s.listings.On("ListProducts", mock.Anything, testBusinessID).Return([]domain.Product{
			{ID: testProductID, BusinessID: testBusinessID, Title: "Surprise bag", Status: domain.ProductStatusSoldOut},
		}, nil).Once()

		rec := s.do(t, &testUser, http.MethodGet, "/products?businessId="+testBusinessID, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp listProductsResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Len(t, resp.Products, 1)
		assert.Equal(t, "sold_out", resp.Products[0].Status)
	})

	t.Run("business id must be a uuid", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, &testUser, http.MethodGet, "/products?businessId=bakery", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, codeValidationFailed, decodeError(t, rec).Code)

		rec = s.do(t, &testUser, http.MethodGet, "/products", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
