package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ghuser/timecapsule/pkg/httpx"
	pkgvalidator "github.com/ghuser/timecapsule/pkg/validator"
	appsvcs "github.com/ghuser/timecapsule/services/capsule/application/services"
	"github.com/ghuser/timecapsule/services/capsule/domain/models"
)

// multipartOverhead leaves room for form fields next to a maximum-size image.
const multipartOverhead = 1 << 20

// CreateCapsuleForm is the multipart form for POST /api/capsules.
type CreateCapsuleForm struct {
	Name           string `json:"name"            validate:"required,max=120"`
	OpenAt         string `json:"open_at"         validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Network        string `json:"network"         validate:"required,network"`
	AuctionEnabled string `json:"auction_enabled" validate:"omitempty,boolean"`
	Message        string `json:"message"`
}

// CreateCapsuleResponse is returned on successful capsule creation.
type CreateCapsuleResponse struct {
	Capsule         CapsuleResponse `json:"capsule"`
	TxID            string          `json:"tx_id"            example:"0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"`
	ContentDegraded bool            `json:"content_degraded" example:"false"`
} // @name CreateCapsuleResponse

// PostCapsuleHandler handles POST /api/capsules requests.
type PostCapsuleHandler struct {
	svc        *appsvcs.Services
	production bool
}

func NewPostCapsuleHandler(svc *appsvcs.Services, production bool) *PostCapsuleHandler {
	return &PostCapsuleHandler{svc: svc, production: production}
}

// Execute pays the creation fee and seals a new capsule.
//
//	@Summary		Create capsule
//	@Description	Pays the creation fee on the chosen network, stores the content and creates a LOCKED capsule. Blocks until the payment is confirmed.
//	@Tags			capsules
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			name			formData	string	true	"Capsule name"
//	@Param			open_at			formData	string	true	"Unlock time, RFC3339"
//	@Param			network			formData	string	true	"Payment network"	Enums(BNB, ETH)
//	@Param			auction_enabled	formData	bool	false	"Allow early-access bids"
//	@Param			message			formData	string	false	"Text content"
//	@Param			image			formData	file	false	"Image content"
//	@Success		201				{object}	CreateCapsuleResponse
//	@Failure		400				{object}	ErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Failure		402				{object}	PaymentErrorResponse
//	@Failure		422				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Security		SessionCookie
//	@Router			/api/capsules [post]
func (h *PostCapsuleHandler) Execute(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(models.MaxContentBytes + multipartOverhead); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	form := CreateCapsuleForm{
		Name:           r.FormValue("name"),
		OpenAt:         r.FormValue("open_at"),
		Network:        r.FormValue("network"),
		AuctionEnabled: r.FormValue("auction_enabled"),
		Message:        r.FormValue("message"),
	}
	if err := pkgvalidator.Validate(&form); err != nil {
		httpx.JSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "Validation failed",
			"fields": pkgvalidator.FormatValidationErrors(err),
		})
		return
	}

	openAt, _ := time.Parse(time.RFC3339, form.OpenAt)
	auction, _ := strconv.ParseBool(form.AuctionEnabled)

	image, err := readImage(r)
	if err != nil {
		httpx.JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res, err := h.svc.Engine.Create(r.Context(), appsvcs.CreateInput{
		Name:           form.Name,
		OpenAt:         openAt,
		Network:        form.Network,
		AuctionEnabled: auction,
		Message:        form.Message,
		Image:          image,
	})
	if err != nil {
		writeError(w, err, h.production)
		return
	}

	httpx.JSON(w, http.StatusCreated, CreateCapsuleResponse{
		Capsule:         toCapsuleResponse(res.Capsule),
		TxID:            res.TxID,
		ContentDegraded: res.ContentDegraded,
	})
}

// readImage returns the uploaded image bytes, or nil when no file was sent.
func readImage(r *http.Request) ([]byte, error) {
	f, _, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, models.MaxContentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(data) > models.MaxContentBytes {
		return nil, fmt.Errorf("image must not exceed %d bytes", models.MaxContentBytes)
	}
	return data, nil
}
