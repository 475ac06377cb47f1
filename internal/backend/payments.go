package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"storefront/internal/model"
)

// GetPaymentInfo handles GET /getPaymentId/{orderId} → {paymentInfo}.
func (c *Client) GetPaymentInfo(ctx context.Context, orderID string) (*model.PaymentInfo, error) {
	var resp struct {
		PaymentInfo *model.PaymentInfo `json:"paymentInfo"`
	}
	path := "/getPaymentId/" + url.PathEscape(orderID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp, requestOptions{}); err != nil {
		return nil, err
	}
	if resp.PaymentInfo == nil || resp.PaymentInfo.PaymentID == "" {
		return nil, fmt.Errorf("GET %s: response carries no payment id", path)
	}
	return resp.PaymentInfo, nil
}

// GetPaymentRecord handles GET /paymentDetails/{paymentId} → {data}.
func (c *Client) GetPaymentRecord(ctx context.Context, paymentID string) (*model.PaymentInfo, error) {
	var resp struct {
		Data model.PaymentInfo `json:"data"`
	}
	path := "/paymentDetails/" + url.PathEscape(paymentID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp, requestOptions{}); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}
