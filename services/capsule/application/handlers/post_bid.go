package handlers

import (
	"net/http"

	"github.com/ghuser/timecapsule/pkg/httpx"
	pkgvalidator "github.com/ghuser/timecapsule/pkg/validator"
	appsvcs "github.com/ghuser/timecapsule/services/capsule/application/services"
	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

// PlaceBidRequest is the request body for POST /api/capsules/{id}/bids.
type PlaceBidRequest struct {
	Amount string `json:"amount" validate:"required,decimal_gt0" example:"0.11"`
} // @name PlaceBidRequest

// PostBidHandler handles POST /api/capsules/{id}/bids.
type PostBidHandler struct {
	svc        *appsvcs.Services
	production bool
}

func NewPostBidHandler(svc *appsvcs.Services, production bool) *PostBidHandler {
	return &PostBidHandler{svc: svc, production: production}
}

// Execute places a bid for early access.
//
//	@Summary		Place bid
//	@Description	Places a bid of at least 110% of the current bid. The floor bid counts as the first standing bid.
//	@Tags			bids
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Capsule ID"	format(uuid)
//	@Param			request	body		PlaceBidRequest	true	"Bid"
//	@Success		201		{object}	BidResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Failure		422		{object}	BidTooLowResponse
//	@Security		SessionCookie
//	@Router			/api/capsules/{id}/bids [post]
func (h *PostBidHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	req, ok := pkgvalidator.ValidateRequest[PlaceBidRequest](w, r)
	if !ok {
		return
	}
	amount, err := models.NewAmount(req.Amount)
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	bid, err := h.svc.Engine.PlaceBid(r.Context(), id, amount)
	if err != nil {
		writeError(w, err, h.production)
		return
	}

	httpx.JSON(w, http.StatusCreated, toBidResponse(bid))
}
