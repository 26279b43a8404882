package handlers

import (
	"net/http"

	"github.com/ghuser/timecapsule/pkg/httpx"
	pkgvalidator "github.com/ghuser/timecapsule/pkg/validator"
	appsvcs "github.com/ghuser/timecapsule/services/capsule/application/services"
)

// ResolveBidRequest is the request body for POST /api/capsules/{id}/bids/{bidID}/resolve.
type ResolveBidRequest struct {
	Accept *bool `json:"accept" validate:"required" example:"true"`
} // @name ResolveBidRequest

// ProceedsResponse is the split of an accepted bid.
type ProceedsResponse struct {
	CreatorShare string `json:"creator_share" example:"0.1078"`
	PlatformFee  string `json:"platform_fee"  example:"0.0022"`
} // @name ProceedsResponse

// ResolveBidResponse is returned after a creator accepts or rejects a bid.
type ResolveBidResponse struct {
	Capsule  CapsuleResponse   `json:"capsule"`
	Bid      BidResponse       `json:"bid"`
	Proceeds *ProceedsResponse `json:"proceeds,omitempty"`
} // @name ResolveBidResponse

// PostResolveHandler handles bid resolution by the capsule creator.
type PostResolveHandler struct {
	svc        *appsvcs.Services
	production bool
}

func NewPostResolveHandler(svc *appsvcs.Services, production bool) *PostResolveHandler {
	return &PostResolveHandler{svc: svc, production: production}
}

// Execute accepts or rejects a pending bid.
//
//	@Summary		Resolve bid
//	@Description	Accepting opens the capsule immediately and rejects all other pending bids. Rejecting keeps the bid for audit.
//	@Tags			bids
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Capsule ID"	format(uuid)
//	@Param			bidID	path		string				true	"Bid ID"		format(uuid)
//	@Param			request	body		ResolveBidRequest	true	"Decision"
//	@Success		200		{object}	ResolveBidResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Security		SessionCookie
//	@Router			/api/capsules/{id}/bids/{bidID}/resolve [post]
func (h *PostResolveHandler) Execute(w http.ResponseWriter, r *http.Request) {
	capsuleID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	bidID, ok := uuidParam(w, r, "bidID")
	if !ok {
		return
	}

	req, ok := pkgvalidator.ValidateRequest[ResolveBidRequest](w, r)
	if !ok {
		return
	}

	res, err := h.svc.Engine.ResolveBid(r.Context(), capsuleID, bidID, *req.Accept)
	if err != nil {
		writeError(w, err, h.production)
		return
	}

	resp := ResolveBidResponse{
		Capsule: toCapsuleResponse(res.Capsule),
		Bid:     toBidResponse(res.Bid),
	}
	if res.Proceeds != nil {
		resp.Proceeds = &ProceedsResponse{
			CreatorShare: res.Proceeds.CreatorShare.String(),
			PlatformFee:  res.Proceeds.PlatformFee.String(),
		}
	}
	httpx.JSON(w, http.StatusOK, resp)
}
