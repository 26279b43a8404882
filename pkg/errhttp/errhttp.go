// Package errhttp maps domain sentinel errors to HTTP status codes.
// Add a case to mapErrorToStatus for each new domain sentinel error.
package errhttp

import (
	"errors"
	"net/http"

	"github.com/ghuser/timecapsule/pkg/httpx"
	capsuledomain "github.com/ghuser/timecapsule/services/capsule/domain"
)

// WriteError maps err to an HTTP status code and writes a JSON error response.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
// Defaults to 500 Internal Server Error for unrecognized errors.
func WriteError(w http.ResponseWriter, err error) {
	Write(w, err, false)
}

// Write is WriteError with 5xx messages hidden when isProduction is set.
// Typed domain errors add machine-readable fields next to "error".
func Write(w http.ResponseWriter, err error, isProduction bool) {
	status := mapErrorToStatus(err)
	body := map[string]any{"error": httpx.SafeError(err, status, isProduction)}

	var tooLow *capsuledomain.BidTooLowError
	if errors.As(err, &tooLow) {
		body["minimum"] = tooLow.Minimum.String()
	}
	var payErr *capsuledomain.PaymentError
	if errors.As(err, &payErr) {
		body["reason"] = string(payErr.Reason)
		if payErr.TxID != "" {
			body["tx_id"] = payErr.TxID
		}
	}
	var persistErr *capsuledomain.PersistenceError
	if errors.As(err, &persistErr) {
		body["tx_id"] = persistErr.TxID
	}

	httpx.JSON(w, status, body)
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, capsuledomain.ErrUnauthenticated):
		return http.StatusUnauthorized // 401
	case errors.Is(err, capsuledomain.ErrPayment):
		return http.StatusPaymentRequired // 402
	case errors.Is(err, capsuledomain.ErrNotCreator):
		return http.StatusForbidden // 403
	case errors.Is(err, capsuledomain.ErrCapsuleNotFound),
		errors.Is(err, capsuledomain.ErrBidNotFound):
		return http.StatusNotFound // 404
	case errors.Is(err, capsuledomain.ErrConcurrencyConflict),
		errors.Is(err, capsuledomain.ErrCapsuleAlreadyOpen),
		errors.Is(err, capsuledomain.ErrBidAlreadyResolved),
		errors.Is(err, capsuledomain.ErrCapsuleAlreadyExists):
		return http.StatusConflict // 409
	case errors.Is(err, capsuledomain.ErrValidation),
		errors.Is(err, capsuledomain.ErrBidTooLow),
		errors.Is(err, capsuledomain.ErrAuctionDisabled),
		errors.Is(err, capsuledomain.ErrSelfBid):
		return http.StatusUnprocessableEntity // 422
	default:
		return http.StatusInternalServerError // 500
	}
}
