package ledger

import (
	"context"
	"sync"

	"storefront/internal/backend"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Enricher attaches payment info to owner-side orders. It is best effort:
// an order whose lookup fails keeps a nil PaymentInfo and never holds up
// another order.
type Enricher struct {
	api    backend.PaymentAPI
	logger zerolog.Logger
}

// NewEnricher creates an enricher over the payment endpoints.
func NewEnricher(api backend.PaymentAPI, logger zerolog.Logger) *Enricher {
	return &Enricher{
		api:    api,
		logger: logger.With().Str("component", "payment-enricher").Logger(),
	}
}

// Lookup fetches the payment id of an order, then its payment record, and
// merges the two.
func (e *Enricher) Lookup(ctx context.Context, orderID string) (*model.PaymentInfo, error) {
	info, err := e.api.GetPaymentInfo(ctx, orderID)
	if err != nil {
		return nil, model.NewFetchError("payment info", err)
	}

	record, err := e.api.GetPaymentRecord(ctx, info.PaymentID)
	if err != nil {
		return nil, model.NewFetchError("payment details", err)
	}

	merged := info.Clone()
	merged.Merge(*record)
	return &merged, nil
}

// Enrich looks up every order concurrently and returns copies carrying the
// result, in input order.
func (e *Enricher) Enrich(ctx context.Context, orders []model.Order) []model.Order {
	type enrichResult struct {
		index int
		info  *model.PaymentInfo
		err   error
	}

	resultChan := make(chan enrichResult, len(orders))
	var wg sync.WaitGroup

	for i := range orders {
		wg.Add(1)
		go func(index int, orderID string) {
			defer wg.Done()

			info, err := e.Lookup(ctx, orderID)
			resultChan <- enrichResult{index: index, info: info, err: err}
		}(i, orders[i].OrderID)
	}

	wg.Wait()
	close(resultChan)

	out := make([]model.Order, len(orders))
	for i := range orders {
		out[i] = orders[i].Clone()
	}

	failed := 0
	for result := range resultChan {
		if result.err != nil {
			failed++
			e.logger.Warn().
				Err(result.err).
				Str("order_id", orders[result.index].OrderID).
				Msg("failed to fetch payment info")
			out[result.index].PaymentInfo = nil
			continue
		}
		out[result.index].PaymentInfo = result.info
	}

	if failed > 0 {
		e.logger.Info().
			Int("orders", len(orders)).
			Int("failed", failed).
			Msg("payment enrichment finished with failures")
	}

	return out
}
