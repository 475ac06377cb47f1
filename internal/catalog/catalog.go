// Package catalog caches the shop list and the menu of the selected shop.
package catalog

import (
	"context"
	"sync"

	"storefront/internal/backend"
	"storefront/internal/model"

	"github.com/rs/zerolog"
)

// Cache is a read-through cache over the catalog endpoints. It has no write
// path; a refetch replaces what it holds.
type Cache struct {
	api    backend.CatalogAPI
	logger zerolog.Logger

	mu       sync.RWMutex
	shops    []model.Shop
	loaded   bool
	selected *model.Shop
	menu     []model.MenuItem
	payment  *model.PaymentDetails
}

// New creates an empty cache.
func New(api backend.CatalogAPI, logger zerolog.Logger) *Cache {
	return &Cache{
		api:    api,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// Shops returns the cached shop list, fetching it on first use.
func (c *Cache) Shops(ctx context.Context) ([]model.Shop, error) {
	c.mu.RLock()
	if c.loaded {
		shops := append([]model.Shop(nil), c.shops...)
		c.mu.RUnlock()
		return shops, nil
	}
	c.mu.RUnlock()

	return c.Refresh(ctx)
}

// Refresh refetches the shop list. On failure the previous list is kept.
func (c *Cache) Refresh(ctx context.Context) ([]model.Shop, error) {
	shops, err := c.api.ListShops(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to fetch shops")
		return nil, model.NewFetchError("shops", err)
	}

	c.mu.Lock()
	c.shops = shops
	c.loaded = true
	c.mu.Unlock()

	c.logger.Debug().Int("shops", len(shops)).Msg("shops loaded")
	return append([]model.Shop(nil), shops...), nil
}

// SelectShop loads the menu and payment methods of shopID and makes it the
// selected shop. If the menu cannot be fetched the previous selection stays.
// A payment-details failure still selects the shop with its menu and is
// returned so the caller can report it.
func (c *Cache) SelectShop(ctx context.Context, shopID string) error {
	menu, err := c.api.ListMenuItems(ctx, shopID)
	if err != nil {
		c.logger.Error().Err(err).Str("shop_id", shopID).Msg("failed to fetch menu")
		return model.NewFetchError("menu", err)
	}

	payment, payErr := c.api.GetShopPaymentDetails(ctx, shopID)
	if payErr != nil {
		c.logger.Warn().Err(payErr).Str("shop_id", shopID).Msg("failed to fetch payment details")
		payment = nil
	}

	c.mu.Lock()
	shop := model.Shop{ID: shopID}
	for _, s := range c.shops {
		if s.ID == shopID {
			shop = s
			break
		}
	}
	c.selected = &shop
	c.menu = menu
	c.payment = payment
	c.mu.Unlock()

	c.logger.Info().
		Str("shop_id", shopID).
		Int("items", len(menu)).
		Bool("payment_details", payment != nil).
		Msg("shop selected")

	if payErr != nil {
		return model.NewFetchError("payment details", payErr)
	}
	return nil
}

// SelectedShop returns the selected shop, if any.
func (c *Cache) SelectedShop() (model.Shop, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.selected == nil {
		return model.Shop{}, false
	}
	return *c.selected, true
}

// Menu returns the menu of the selected shop.
func (c *Cache) Menu() []model.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]model.MenuItem(nil), c.menu...)
}

// PaymentDetails returns the payment methods of the selected shop, or nil
// when they are unknown.
func (c *Cache) PaymentDetails() *model.PaymentDetails {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.payment == nil {
		return nil
	}
	return &model.PaymentDetails{Methods: append([]model.PaymentMethod(nil), c.payment.Methods...)}
}

// Item looks up a menu item of the selected shop.
func (c *Cache) Item(itemID string) (model.MenuItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, item := range c.menu {
		if item.ID == itemID {
			return item, true
		}
	}
	return model.MenuItem{}, false
}
