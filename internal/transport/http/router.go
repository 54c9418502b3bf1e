package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dave999999/SmartPick1-sub000/internal/auth"
)

// ReservationAPI is everything the reservation routes need.
type ReservationAPI interface {
	ReservationCreator
	ReservationCanceller
	ReservationRedeemer
	ExpirySweeper
	UserReservationLister
	PartnerReservationLister
}

// ListingAPI is everything the listing routes need.
type ListingAPI interface {
	BusinessCreator
	ProductCreator
	ProductLister
}

type RouterConfig struct {
	Reservations ReservationAPI
	Listings     ListingAPI
	Verifier     *auth.Verifier
	Health       Pinger
	CORSOrigins  []string
	Logger       *slog.Logger
}

// NewRouter wires every route behind logging, panic recovery and CORS.
// All routes except /health require a bearer token.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(CORS(cfg.CORSOrigins))

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/health", HandleHealth(cfg.Health))

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Verifier, writeAuthError))

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/create", HandleCreateReservation(cfg.Reservations))
			r.Post("/cancel", HandleCancelReservation(cfg.Reservations))
			r.Post("/redeem", HandleRedeemReservation(cfg.Reservations))
			r.Post("/check_expired", HandleCheckExpired(cfg.Reservations))
			r.Get("/my", HandleListMyReservations(cfg.Reservations))
			r.Get("/partner", HandleListPartnerReservations(cfg.Reservations))
		})

		r.Post("/businesses", HandleCreateBusiness(cfg.Listings))
		r.Post("/products", HandleCreateProduct(cfg.Listings))
		r.Get("/products", HandleListProducts(cfg.Listings))
	})

	return r
}

func writeAuthError(w http.ResponseWriter, _ *http.Request, err error) {
	msg := "invalid token"
	if errors.Is(err, auth.ErrMissingToken) {
		msg = "missing bearer token"
	}
	writeError(w, http.StatusUnauthorized, codeUnauthorized, msg)
}
