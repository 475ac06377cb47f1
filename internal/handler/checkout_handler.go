package handler

import (
	"mime"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/proof"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// BeginRequest is the body of POST /api/checkout.
type BeginRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// ProofRequest names a stored screenshot for POST /api/checkout/proof.
type ProofRequest struct {
	Ref string `json:"ref"`
}

// CheckoutHandler serves the payment hand-off of the customer dashboard.
type CheckoutHandler struct {
	service service.CustomerService
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.CustomerService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

// Status handles GET /api/checkout requests.
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.CheckoutStatus())
}

// Begin handles POST /api/checkout requests.
func (h *CheckoutHandler) Begin(w http.ResponseWriter, r *http.Request) {
	var req BeginRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	status, err := h.service.BeginCheckout(r.Context(), model.PaymentMethodType(req.PaymentMethod))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// UploadProof handles POST /api/checkout/proof requests. The screenshot is
// either a multipart "image" file or a JSON reference to a stored one.
func (h *CheckoutHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		h.uploadMultipart(w, r)
		return
	}

	var req ProofRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.Ref == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingProof, model.ErrMissingProof.Message, h.logger)
		return
	}

	status, err := h.service.UploadProof(r.Context(), req.Ref)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *CheckoutHandler) uploadMultipart(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, proof.MaxSize+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidProof, model.ErrInvalidProof.Message, h.logger)
		return
	}
	defer file.Close()

	img, err := proof.NewImage(header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	status, err := h.service.UploadProofImage(r.Context(), img)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// Submit handles POST /api/checkout/submit requests.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.SubmitOrder(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// Cancel handles DELETE /api/checkout requests.
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.CancelCheckout()
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
