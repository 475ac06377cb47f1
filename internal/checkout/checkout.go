// Package checkout drives the payment hand-off: from a priced cart and a
// chosen payment method, through proof upload, to a single
// verify-and-create-order request.
package checkout

import (
	"context"
	"errors"
	"sync"

	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/proof"
	"storefront/internal/telemetry"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Pending is the payment being prepared. It exists from Begin until the
// order is created or the hand-off is cancelled.
type Pending struct {
	Cart           cart.Snapshot       `json:"cart"`
	Method         model.PaymentMethod `json:"method"`
	ProofURL       string              `json:"proof_url,omitempty"`
	IdempotencyKey string              `json:"idempotency_key"`
}

// Status is a point-in-time view of the hand-off.
type Status struct {
	State     State        `json:"state"`
	Pending   *Pending     `json:"pending,omitempty"`
	CanSubmit bool         `json:"can_submit"`
	Outcome   State        `json:"last_outcome"`
	LastError string       `json:"last_error,omitempty"`
	Order     *model.Order `json:"order,omitempty"`
}

// CompletionFunc receives the order created by a successful submission.
type CompletionFunc func(order model.Order)

// Handoff is the payment hand-off state machine. It is safe for concurrent
// use; at most one submission is in flight at a time.
type Handoff struct {
	images   backend.ImageAPI
	checkout backend.CheckoutAPI
	source   proof.Source
	logger   zerolog.Logger

	mu         sync.Mutex
	state      State
	pending    *Pending
	outcome    State
	lastErr    error
	order      *model.Order
	onComplete CompletionFunc
}

// New creates an idle hand-off. source may be nil when proofs only arrive
// as raw images through UploadImage.
func New(images backend.ImageAPI, checkout backend.CheckoutAPI, source proof.Source, logger zerolog.Logger) *Handoff {
	return &Handoff{
		images:   images,
		checkout: checkout,
		source:   source,
		logger:   logger.With().Str("component", "checkout").Logger(),
		outcome:  Idle,
	}
}

// OnComplete registers the callback run after an order is created.
func (h *Handoff) OnComplete(fn CompletionFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.onComplete = fn
}

// Begin starts a hand-off for snap paid with methodType. It fails with a
// validation error, and changes nothing, when the cart is empty, no method
// is given or the shop does not offer the method. Beginning again while
// awaiting proof starts over with a new pending payment.
func (h *Handoff) Begin(snap cart.Snapshot, details *model.PaymentDetails, methodType model.PaymentMethodType) error {
	if snap.IsEmpty() {
		return model.ErrEmptyCart
	}
	if methodType == "" {
		return model.ErrNoPaymentMethod
	}
	method, ok := details.Find(methodType)
	if !ok {
		return model.ErrUnknownMethod
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == Submitting {
		return model.ErrSubmitInFlight
	}

	h.pending = &Pending{
		Cart:           snap,
		Method:         method,
		IdempotencyKey: uuid.NewString(),
	}
	h.order = nil
	h.lastErr = nil
	h.transition(AwaitingProof)

	h.logger.Info().
		Str("shop_id", snap.ShopID).
		Str("method", string(methodType)).
		Str("total", snap.Total.String()).
		Msg("checkout started")

	return nil
}

// UploadProof reads the image named by ref from the proof source and
// uploads it.
func (h *Handoff) UploadProof(ctx context.Context, ref string) error {
	if err := h.expectAwaitingProof(); err != nil {
		return err
	}
	if h.source == nil {
		return model.NewUploadError(errors.New("no proof source configured"))
	}

	img, err := h.source.Open(ctx, ref)
	if err != nil {
		if model.IsValidation(err) {
			return err
		}
		h.logger.Error().Err(err).Str("ref", ref).Msg("failed to read proof image")
		return model.NewUploadError(err)
	}

	return h.UploadImage(ctx, img)
}

// UploadImage uploads img as the payment proof. Each call sends exactly one
// upload request. On success the returned URL replaces any earlier proof;
// on failure the earlier proof, if any, is kept. The state stays
// AwaitingProof either way.
func (h *Handoff) UploadImage(ctx context.Context, img *proof.Image) error {
	h.mu.Lock()
	if err := h.awaitingProofLocked(); err != nil {
		h.mu.Unlock()
		return err
	}
	pending := h.pending
	h.mu.Unlock()

	url, err := h.images.UploadImage(ctx, img.Name, img.ContentType, img.Reader())
	if err != nil {
		h.logger.Error().Err(err).Str("file", img.Name).Msg("proof upload failed")
		h.mu.Lock()
		h.lastErr = err
		h.mu.Unlock()
		return model.NewUploadError(err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// The hand-off was cancelled or restarted while the upload ran.
	if h.pending != pending || h.state != AwaitingProof {
		h.logger.Warn().Str("file", img.Name).Msg("discarding proof uploaded for an abandoned checkout")
		return model.ErrNotAwaitingProof
	}

	pending.ProofURL = url
	h.lastErr = nil

	h.logger.Info().Str("proof_url", url).Msg("proof uploaded")
	return nil
}

// Submit sends the verify-and-create-order request. It requires an
// uploaded proof and fails without any network call otherwise. A failed or
// refused submission returns the hand-off to AwaitingProof with its proof
// kept, so the customer can resubmit without uploading again. There is no
// automatic retry.
func (h *Handoff) Submit(ctx context.Context) (*model.Order, error) {
	h.mu.Lock()
	if err := h.awaitingProofLocked(); err != nil {
		h.mu.Unlock()
		return nil, err
	}
	if h.pending.ProofURL == "" {
		h.mu.Unlock()
		return nil, model.ErrMissingProof
	}
	pending := *h.pending
	h.transition(Submitting)
	h.mu.Unlock()

	ctx, span := telemetry.Tracer("checkout").Start(ctx, "checkout.submit", trace.WithAttributes(
		attribute.String("shop_id", pending.Cart.ShopID),
		attribute.String("method", string(pending.Method.Type)),
	))
	defer span.End()

	req := &model.VerifyPaymentRequest{
		PaymentScreenshotURL: pending.ProofURL,
		ShopID:               pending.Cart.ShopID,
		Amount:               pending.Cart.Total,
		PaymentMethod:        pending.Method.Type,
		Items:                pending.Cart.Lines,
	}

	resp, err := h.checkout.VerifyPaymentAndCreateOrder(ctx, req, pending.IdempotencyKey)
	if err == nil && !resp.Succeeded() {
		err = refusal(resp)
	}

	h.mu.Lock()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "submission failed")
		h.lastErr = err
		h.transition(Failed)
		h.transition(AwaitingProof)
		h.mu.Unlock()

		h.logger.Error().
			Err(err).
			Str("shop_id", pending.Cart.ShopID).
			Str("method", string(pending.Method.Type)).
			Msg("order submission failed")
		return nil, model.NewSubmissionError(err)
	}

	order := resp.Order.Clone()
	h.pending = nil
	h.lastErr = nil
	h.order = &order
	h.transition(Completed)
	onComplete := h.onComplete
	h.mu.Unlock()

	h.logger.Info().
		Str("order_id", order.OrderID).
		Str("shop_id", order.ShopID).
		Msg("order placed")

	if onComplete != nil {
		onComplete(order.Clone())
	}

	result := order.Clone()
	return &result, nil
}

// Cancel abandons the hand-off and drops the pending payment.
func (h *Handoff) Cancel() error {
	return h.Reset()
}

// Reset returns to Idle, as when the checkout view is dismissed or
// reopened. It is refused while a submission is in flight.
func (h *Handoff) Reset() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == Submitting {
		return model.ErrSubmitInFlight
	}
	h.pending = nil
	h.order = nil
	h.lastErr = nil
	h.state = Idle
	return nil
}

// State returns the current state.
func (h *Handoff) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state
}

// Pending returns a copy of the pending payment, or nil.
func (h *Handoff) Pending() *Pending {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.pendingCopy()
}

// CanSubmit reports whether Submit would send a request.
func (h *Handoff) CanSubmit() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.state == AwaitingProof && h.pending != nil && h.pending.ProofURL != ""
}

// Status returns a snapshot for display.
func (h *Handoff) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := Status{
		State:     h.state,
		Pending:   h.pendingCopy(),
		CanSubmit: h.state == AwaitingProof && h.pending != nil && h.pending.ProofURL != "",
		Outcome:   h.outcome,
	}
	if h.lastErr != nil {
		s.LastError = h.lastErr.Error()
	}
	if h.order != nil {
		o := h.order.Clone()
		s.Order = &o
	}
	return s
}

func (h *Handoff) expectAwaitingProof() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.awaitingProofLocked()
}

func (h *Handoff) awaitingProofLocked() error {
	switch h.state {
	case AwaitingProof:
		return nil
	case Submitting:
		return model.ErrSubmitInFlight
	default:
		return model.ErrNotAwaitingProof
	}
}

func (h *Handoff) pendingCopy() *Pending {
	if h.pending == nil {
		return nil
	}
	p := *h.pending
	p.Cart.Lines = append([]model.CartLine(nil), h.pending.Cart.Lines...)
	return &p
}

// transition must be called with mu held.
func (h *Handoff) transition(to State) {
	h.logger.Debug().
		Str("from", h.state.String()).
		Str("state", to.String()).
		Msg("checkout transition")
	if to == Completed || to == Failed {
		h.outcome = to
	}
	h.state = to
}

func refusal(resp *model.VerifyPaymentResponse) error {
	msg := "payment verification failed"
	if resp != nil && resp.Message != "" {
		msg = resp.Message
	}
	return errors.New(msg)
}
