package handlers

import (
	"net/http"

	"github.com/ghuser/timecapsule/pkg/httpx"
	appsvcs "github.com/ghuser/timecapsule/services/capsule/application/services"
	domainsvcs "github.com/ghuser/timecapsule/services/capsule/domain/services"
)

// GetCapsuleHandler handles GET /api/capsules/{id}.
type GetCapsuleHandler struct {
	svc        *appsvcs.Services
	production bool
}

func NewGetCapsuleHandler(svc *appsvcs.Services, production bool) *GetCapsuleHandler {
	return &GetCapsuleHandler{svc: svc, production: production}
}

// Execute returns a capsule. Content is hidden until the capsule is OPEN.
//
//	@Summary		Get capsule
//	@Description	Returns a capsule. A LOCKED capsule whose unlock time has passed is opened first.
//	@Tags			capsules
//	@Produce		json
//	@Param			id	path		string	true	"Capsule ID"	format(uuid)
//	@Success		200	{object}	CapsuleResponse
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		SessionCookie
//	@Router			/api/capsules/{id} [get]
func (h *GetCapsuleHandler) Execute(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	c, err := h.svc.Engine.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, h.production)
		return
	}

	resp := toCapsuleResponse(c)
	if c.AuctionEnabled && !c.IsOpen() {
		resp.MinimumBid = domainsvcs.MinimumBid(c.CurrentBid, c.FloorBid).String()
	}
	httpx.JSON(w, http.StatusOK, resp)
}
