package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dave999999/SmartPick1-sub000/internal/app"
	"github.com/dave999999/SmartPick1-sub000/internal/auth"
	"github.com/dave999999/SmartPick1-sub000/internal/domain"
)

// ReservationCreator is the minimal interface needed to create a reservation.
type ReservationCreator interface {
	Create(ctx context.Context, in app.CreateReservationInput) (domain.Reservation, error)
}

type ReservationCanceller interface {
	Cancel(ctx context.Context, userID, reservationID string) error
}

type ReservationRedeemer interface {
	Redeem(ctx context.Context, in app.RedeemInput) (domain.Reservation, error)
}

type ExpirySweeper interface {
	SweepExpired(ctx context.Context, scope domain.SweepScope) (int, error)
}

type UserReservationLister interface {
	ListForUser(ctx context.Context, userID string) ([]domain.ReservationView, error)
}

type PartnerReservationLister interface {
	ListForPartner(ctx context.Context, actor domain.Actor) ([]domain.ReservationView, error)
}

type createReservationRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type createdReservation struct {
	ID               string    `json:"id"`
	VerificationCode string    `json:"verificationCode"`
	ExpiresAt        time.Time `json:"expiresAt"`
}

type createReservationResponse struct {
	Success     bool               `json:"success"`
	Reservation createdReservation `json:"reservation"`
}

// HandleCreateReservation returns an HTTP handler that reserves units for the caller.
func HandleCreateReservation(svc ReservationCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var req createReservationRequest
		if reqErr := decodeRequest(w, r, &req, false); reqErr != nil {
			reqErr.write(w)
			return
		}

		res, err := svc.Create(r.Context(), app.CreateReservationInput{
			UserID:    actor.UserID,
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusCreated, createReservationResponse{
			Success: true,
			Reservation: createdReservation{
				ID:               res.ID,
				VerificationCode: res.VerificationCode,
				ExpiresAt:        res.ExpiresAt,
			},
		})
	}
}

type cancelReservationRequest struct {
	ReservationID string `json:"reservationId" validate:"required,uuid"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func HandleCancelReservation(svc ReservationCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var req cancelReservationRequest
		if reqErr := decodeRequest(w, r, &req, false); reqErr != nil {
			reqErr.write(w)
			return
		}

		if err := svc.Cancel(r.Context(), actor.UserID, req.ReservationID); err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Reservation cancelled"})
	}
}

type redeemReservationRequest struct {
	ReservationID    string `json:"reservationId" validate:"required,uuid"`
	VerificationCode string `json:"verificationCode" validate:"required,len=6,numeric"`
}

type reservationResponse struct {
	ID               string     `json:"id"`
	ProductID        string     `json:"productId"`
	UserID           string     `json:"userId"`
	Quantity         int        `json:"quantity"`
	Status           string     `json:"status"`
	ReservedAt       time.Time  `json:"reservedAt"`
	ExpiresAt        time.Time  `json:"expiresAt"`
	VerificationCode string     `json:"verificationCode,omitempty"`
	RedeemedAt       *time.Time `json:"redeemedAt,omitempty"`
}

type redeemReservationResponse struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message"`
	Reservation reservationResponse `json:"reservation"`
}

// HandleRedeemReservation returns an HTTP handler partners use at pickup.
// Role checks happen in the service so admins and partners share the route.
func HandleRedeemReservation(svc ReservationRedeemer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		var req redeemReservationRequest
		if reqErr := decodeRequest(w, r, &req, false); reqErr != nil {
			reqErr.write(w)
			return
		}

		res, err := svc.Redeem(r.Context(), app.RedeemInput{
			Actor:            actor,
			ReservationID:    req.ReservationID,
			VerificationCode: req.VerificationCode,
		})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		resp := toReservationResponse(res)
		resp.VerificationCode = ""
		writeJSON(w, http.StatusOK, redeemReservationResponse{
			Success:     true,
			Message:     "Reservation redeemed",
			Reservation: resp,
		})
	}
}

type checkExpiredRequest struct{}

type checkExpiredResponse struct {
	Success        bool `json:"success"`
	ProcessedCount int  `json:"processedCount"`
}

// HandleCheckExpired runs a global expiry sweep on demand.
func HandleCheckExpired(svc ExpirySweeper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireActor(w, r); !ok {
			return
		}

		var req checkExpiredRequest
		if reqErr := decodeRequest(w, r, &req, true); reqErr != nil {
			reqErr.write(w)
			return
		}

		n, err := svc.SweepExpired(r.Context(), domain.SweepScope{})
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, checkExpiredResponse{Success: true, ProcessedCount: n})
	}
}

type productSummary struct {
	Title         string          `json:"title"`
	DiscountPrice decimal.Decimal `json:"discountPrice"`
	PickupStart   time.Time       `json:"pickupStart"`
	PickupEnd     time.Time       `json:"pickupEnd"`
}

type businessSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type reservationViewResponse struct {
	reservationResponse
	Product  productSummary  `json:"product"`
	Business businessSummary `json:"business"`
}

type listReservationsResponse struct {
	Reservations []reservationViewResponse `json:"reservations"`
}

func HandleListMyReservations(svc UserReservationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		views, err := svc.ListForUser(r.Context(), actor.UserID)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toListResponse(views))
	}
}

func HandleListPartnerReservations(svc PartnerReservationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := requireActor(w, r)
		if !ok {
			return
		}

		views, err := svc.ListForPartner(r.Context(), actor)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toListResponse(views))
	}
}

func toReservationResponse(r domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:               r.ID,
		ProductID:        r.ProductID,
		UserID:           r.UserID,
		Quantity:         r.Quantity,
		Status:           string(r.Status),
		ReservedAt:       r.ReservedAt,
		ExpiresAt:        r.ExpiresAt,
		VerificationCode: r.VerificationCode,
		RedeemedAt:       r.RedeemedAt,
	}
}

func toListResponse(views []domain.ReservationView) listReservationsResponse {
	out := make([]reservationViewResponse, 0, len(views))
	for _, v := range views {
		out = append(out, reservationViewResponse{
			reservationResponse: toReservationResponse(v.Reservation),
			Product: productSummary{
				Title:         v.ProductTitle,
				DiscountPrice: v.DiscountPrice,
				PickupStart:   v.PickupStart,
				PickupEnd:     v.PickupEnd,
			},
			Business: businessSummary{
				ID:      v.BusinessID,
				Name:    v.BusinessName,
				Address: v.BusinessAddress,
			},
		})
	}
	return listReservationsResponse{Reservations: out}
}

// requireActor returns the authenticated caller or writes a 401.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "unauthorized")
		return domain.Actor{}, false
	}
	return actor, true
}
