package handlers

import (
	"net/http"

	"github.com/ghuser/timecapsule/pkg/httpx"
	appsvcs "github.com/ghuser/timecapsule/services/capsule/application/services"
)

// ListBidsResponse wraps a capsule's bids, highest first.
type ListBidsResponse struct {
	Bids []BidResponse `json:"bids"`
} // @name ListBidsResponse

// GetBidsHandler handles GET /api/capsules/{id}/bids.
type GetBidsHandler struct {
	svc        *appsvcs.Services
	production bool
}

func NewGetBidsHandler(svc *appsvcs.Services, production bool) *GetBidsHandler {
	return &GetBidsHandler{svc: svc, production: production}
}

// Execute lists bids sorted by amount descending.
//
//	@Summary		List bids
//	@Description	Lists every bid on a capsule, including resolved ones, highest amount first.
//	@Tags			bids
//	@Produce		json
//	@Param			id	path		string	true	"Capsule ID"	format(uuid)
//	@Success		200	{object}	ListBidsResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		SessionCookie
//	@Router			/api/capsules/{id}/bids [get]
func (h *GetBidsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	bids, err := h.svc.Engine.ListBids(r.Context(), id)
	if err != nil {
		writeError(w, err, h.production)
		return
	}

	resp := ListBidsResponse{Bids: make([]BidResponse, 0, len(bids))}
	for _, b := range bids {
		resp.Bids = append(resp.Bids, toBidResponse(b))
	}
	httpx.JSON(w, http.StatusOK, resp)
}
