package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/dave999999/SmartPick1-sub000/internal/domain"
)

const (
	codeMethodNotAllowed        = "method_not_allowed"
	codeNotFound                = "not_found"
	codeInvalidRequestBody      = "invalid_request_body"
	codeValidationFailed        = "validation_failed"
	codeUnauthorized            = "unauthorized"
	codeForbidden               = "forbidden"
	codeInvalidID               = "invalid_id"
	codeInvalidQuantity         = "invalid_quantity"
	codePenaltyActive           = "penalty_active"
	codeReservationLimitReached = "reservation_limit_reached"
	codeDuplicateReservation    = "duplicate_reservation"
	codeProductNotFound         = "product_not_found"
	codeProductUnavailable      = "product_unavailable"
	codeInsufficientStock       = "insufficient_stock"
	codeReservationNotFound     = "reservation_not_found"
	codeNotReservationOwner     = "not_reservation_owner"
	codeNotBusinessOwner        = "not_business_owner"
	codeReservationNotActive    = "reservation_not_active"
	codeReservationExpired      = "reservation_expired"
	codeInvalidVerificationCode = "invalid_verification_code"
	codeBusinessNotFound        = "business_not_found"
	codeBusinessNameRequired    = "business_name_required"
	codeProductTitleRequired    = "product_title_required"
	codeInvalidPrice            = "invalid_price"
	codeInvalidPickupWindow     = "invalid_pickup_window"
	codeInternalError           = "internal_error"
)

type errorResponse struct {
	Error        string       `json:"error"`
	Code         string       `json:"code"`
	PenaltyUntil *time.Time   `json:"penaltyUntil,omitempty"`
	Details      []fieldError `json:"details,omitempty"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

var serviceErrors = []struct {
	err    error
	status int
	code   string
}{
	{domain.ErrInvalidID, http.StatusBadRequest, codeInvalidID},
	{domain.ErrInvalidQuantity, http.StatusBadRequest, codeInvalidQuantity},
	{domain.ErrBusinessNameMissing, http.StatusBadRequest, codeBusinessNameRequired},
	{domain.ErrProductTitleMissing, http.StatusBadRequest, codeProductTitleRequired},
	{domain.ErrInvalidPrice, http.StatusBadRequest, codeInvalidPrice},
	{domain.ErrInvalidPickupWindow, http.StatusBadRequest, codeInvalidPickupWindow},

	{domain.ErrForbidden, http.StatusForbidden, codeForbidden},
	{domain.ErrNotReservationOwner, http.StatusForbidden, codeNotReservationOwner},
	{domain.ErrNotBusinessOwner, http.StatusForbidden, codeNotBusinessOwner},

	{domain.ErrProductNotFound, http.StatusNotFound, codeProductNotFound},
	{domain.ErrBusinessNotFound, http.StatusNotFound, codeBusinessNotFound},
	{domain.ErrReservationNotFound, http.StatusNotFound, codeReservationNotFound},

	{domain.ErrPenaltyActive, http.StatusConflict, codePenaltyActive},
	{domain.ErrReservationLimitReached, http.StatusConflict, codeReservationLimitReached},
	{domain.ErrDuplicateReservation, http.StatusConflict, codeDuplicateReservation},
	{domain.ErrProductUnavailable, http.StatusConflict, codeProductUnavailable},
	{domain.ErrInsufficientStock, http.StatusConflict, codeInsufficientStock},
	{domain.ErrReservationNotActive, http.StatusConflict, codeReservationNotActive},
	{domain.ErrReservationExpired, http.StatusConflict, codeReservationExpired},
	{domain.ErrInvalidVerificationCode, http.StatusConflict, codeInvalidVerificationCode},
}

// writeServiceError maps a service error onto the JSON envelope. Unknown
// errors are logged and reported as internal errors.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var penalty *domain.PenaltyError
	if errors.As(err, &penalty) {
		until := penalty.Until.UTC()
		writeErrorResponse(w, http.StatusConflict, errorResponse{
			Error:        penalty.Error(),
			Code:         codePenaltyActive,
			PenaltyUntil: &until,
		})
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, m.err.Error())
			return
		}
	}

	slog.ErrorContext(r.Context(), "request failed",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
