package backend

import (
	"context"
	"net/http"
	"net/url"

	"storefront/internal/model"
)

// ListShops handles GET /getAllShops, which answers with a bare array.
func (c *Client) ListShops(ctx context.Context) ([]model.Shop, error) {
	var shops []model.Shop
	if err := c.doJSON(ctx, http.MethodGet, "/getAllShops", nil, &shops, requestOptions{}); err != nil {
		return nil, err
	}
	return shops, nil
}

// ListMenuItems handles GET /shop/{id}/getAllMenuItems → {items}.
// Every returned item is stamped with shopID.
func (c *Client) ListMenuItems(ctx context.Context, shopID string) ([]model.MenuItem, error) {
	var resp struct {
		Items []model.MenuItem `json:"items"`
	}
	path := "/shop/" + url.PathEscape(shopID) + "/getAllMenuItems"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp, requestOptions{}); err != nil {
		return nil, err
	}
	for i := range resp.Items {
		resp.Items[i].ShopID = shopID
	}
	return resp.Items, nil
}

// GetShopPaymentDetails handles GET /shop/{id}/payment-details → {methods}.
func (c *Client) GetShopPaymentDetails(ctx context.Context, shopID string) (*model.PaymentDetails, error) {
	var details model.PaymentDetails
	path := "/shop/" + url.PathEscape(shopID) + "/payment-details"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &details, requestOptions{}); err != nil {
		return nil, err
	}
	return &details, nil
}

// OwnerShops handles GET /ownerShops → {shops}.
func (c *Client) OwnerShops(ctx context.Context) ([]model.Shop, error) {
	var resp struct {
		Shops []model.Shop `json:"shops"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/ownerShops", nil, &resp, requestOptions{}); err != nil {
		return nil, err
	}
	return resp.Shops, nil
}

// ShopDashboard handles GET /shopDashboard/{id}.
func (c *Client) ShopDashboard(ctx context.Context, shopID string) (*model.ShopDashboard, error) {
	var dashboard model.ShopDashboard
	path := "/shopDashboard/" + url.PathEscape(shopID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &dashboard, requestOptions{}); err != nil {
		return nil, err
	}
	return &dashboard, nil
}
