package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ghuser/timecapsule/pkg/errhttp"
	"github.com/ghuser/timecapsule/pkg/httpx"
	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

// CapsuleResponse is the public view of a capsule. content_ref is present only once OPEN.
type CapsuleResponse struct {
	ID              uuid.UUID  `json:"id"                          example:"123e4567-e89b-12d3-a456-426614174000"`
	Name            string     `json:"name"                        example:"Letter to 2030"`
	CreatorID       uuid.UUID  `json:"creator_id"                  example:"550e8400-e29b-41d4-a716-446655440000"`
	Status          string     `json:"status"                      example:"LOCKED"`
	ContentRef      *string    `json:"content_ref,omitempty"       example:"https://cdn.example.com/capsules/abc.png"`
	ScheduledOpenAt time.Time  `json:"scheduled_open_at"           example:"2030-01-01T00:00:00Z"`
	ActualOpenAt    *time.Time `json:"actual_open_at,omitempty"`
	AuctionEnabled  bool       `json:"auction_enabled"             example:"true"`
	FloorBid        string     `json:"floor_bid"                   example:"0.1"`
	CurrentBid      string     `json:"current_bid"                 example:"0.11"`
	MinimumBid      string     `json:"minimum_bid,omitempty"       example:"0.121"`
	HighestBidderID *uuid.UUID `json:"highest_bidder_id,omitempty"`
	Network         string     `json:"network"                     example:"BNB"`
	PaymentTxID     string     `json:"payment_tx_id"               example:"0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"`
	CreatedAt       time.Time  `json:"created_at"                  example:"2024-01-15T10:30:00Z"`
	UpdatedAt       time.Time  `json:"updated_at"                  example:"2024-01-15T10:30:00Z"`
} // @name CapsuleResponse

// BidResponse is a single bid.
type BidResponse struct {
	ID         uuid.UUID  `json:"id"`
	CapsuleID  uuid.UUID  `json:"capsule_id"`
	BidderID   uuid.UUID  `json:"bidder_id"`
	Amount     string     `json:"amount"               example:"0.11"`
	Status     string     `json:"status"               example:"PENDING"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
} // @name BidResponse

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error" example:"capsule not found"`
} // @name ErrorResponse

// BidTooLowResponse is returned when a bid does not clear the premium.
type BidTooLowResponse struct {
	Error   string `json:"error"   example:"bid too low: minimum is 0.11"`
	Minimum string `json:"minimum" example:"0.11"`
} // @name BidTooLowResponse

// PaymentErrorResponse is returned when the creation fee was not confirmed.
type PaymentErrorResponse struct {
	Error  string `json:"error"           example:"pay creation fee: payment failed: UserRejected"`
	Reason string `json:"reason"          example:"UserRejected"`
	TxID   string `json:"tx_id,omitempty"`
} // @name PaymentErrorResponse

func toCapsuleResponse(c *models.Capsule) CapsuleResponse {
	resp := CapsuleResponse{
		ID:              c.ID,
		Name:            c.Name.String(),
		CreatorID:       c.CreatorID,
		Status:          string(c.Status),
		ScheduledOpenAt: c.ScheduledOpenAt,
		ActualOpenAt:    c.ActualOpenAt,
		AuctionEnabled:  c.AuctionEnabled,
		FloorBid:        c.FloorBid.String(),
		CurrentBid:      c.CurrentBid.String(),
		HighestBidderID: c.HighestBidderID,
		Network:         c.Network.String(),
		PaymentTxID:     c.PaymentTxID,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.ContentRef != nil {
		ref := c.ContentRef.String()
		resp.ContentRef = &ref
	}
	return resp
}

func toBidResponse(b *models.Bid) BidResponse {
	return BidResponse{
		ID:         b.ID,
		CapsuleID:  b.CapsuleID,
		BidderID:   b.BidderID,
		Amount:     b.Amount.String(),
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		ResolvedAt: b.ResolvedAt,
	}
}

// uuidParam reads a UUID path parameter, writing 400 when it is malformed.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s", name))
		return uuid.Nil, false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error, production bool) {
	errhttp.Write(w, err, production)
}
