package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"storefront/internal/model"
)

type ordersResponse struct {
	Orders []model.Order `json:"orders"`
}

// ListUserOrders handles GET /listUserOrders → {orders}.
func (c *Client) ListUserOrders(ctx context.Context) ([]model.Order, error) {
	var resp ordersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/listUserOrders", nil, &resp, requestOptions{}); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// ListShopOrders handles GET /listShopOrders → {orders}.
func (c *Client) ListShopOrders(ctx context.Context) ([]model.Order, error) {
	var resp ordersResponse
	if err := c.doJSON(ctx, http.MethodGet, "/listShopOrders", nil, &resp, requestOptions{}); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// UpdateOrderStatus handles PUT /updateOrderStatus/{orderId}.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID string, status model.OrderStatus) error {
	body := map[string]any{"status": status}
	path := "/updateOrderStatus/" + url.PathEscape(orderID)
	return c.doJSON(ctx, http.MethodPut, path, body, nil, requestOptions{})
}

// UpdatePaymentStatus handles PUT /updatePaymentStatus/{orderId}.
func (c *Client) UpdatePaymentStatus(ctx context.Context, orderID, paymentID string, status model.PaymentStatus) error {
	body := map[string]any{"paymentId": paymentID, "status": status}
	path := "/updatePaymentStatus/" + url.PathEscape(orderID)
	return c.doJSON(ctx, http.MethodPut, path, body, nil, requestOptions{})
}

// VerifyPaymentAndCreateOrder handles POST /verifyPaymentAndCreateOrder →
// {status, order}. A 2xx answer with a non-success status is returned as is;
// the caller decides.
func (c *Client) VerifyPaymentAndCreateOrder(ctx context.Context, req *model.VerifyPaymentRequest, idempotencyKey string) (*model.VerifyPaymentResponse, error) {
	var resp model.VerifyPaymentResponse
	opts := requestOptions{}
	if idempotencyKey != "" {
		opts.headers = map[string]string{"Idempotency-Key": idempotencyKey}
	}
	if err := c.doJSON(ctx, http.MethodPost, "/verifyPaymentAndCreateOrder", req, &resp, opts); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UploadImage handles POST /imageupload (multipart field "image") → {data: {url}}.
func (c *Client) UploadImage(ctx context.Context, filename, contentType string, data io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart body: %w", err)
	}

	var resp struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	opts := requestOptions{contentType: mw.FormDataContentType()}
	if err := c.do(ctx, http.MethodPost, "/imageupload", &body, &resp, opts); err != nil {
		return "", err
	}
	if resp.Data.URL == "" {
		return "", fmt.Errorf("POST /imageupload: response carries no url")
	}
	return resp.Data.URL, nil
}
