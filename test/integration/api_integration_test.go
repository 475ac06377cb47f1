package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/backend"
	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func doRequest(t *testing.T, h http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("X-API-Key", testAPIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	return doRequest(t, h, method, path, reader, "application/json")
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v), w.Body.String())
	return v
}

type ordersBody struct {
	Scope  model.Scope   `json:"scope"`
	Orders []model.Order `json:"orders"`
	Count  int           `json:"count"`
}

type noticesBody struct {
	Notices []service.Notice `json:"notices"`
}

func hasNotice(notices []service.Notice, message string) bool {
	for _, n := range notices {
		if strings.Contains(n.Message, message) {
			return true
		}
	}
	return false
}

func TestCustomerAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	CleanupDB(t, testDB.Pool)
	fb := NewFakeBackend(t)
	store := session.NewPostgresStore(testDB.Pool, time.Hour, zerolog.Nop())
	stack := SetupStack(t, fb, store, customerToken)
	server := stack.Handler

	require.Eventually(t, func() bool { return fb.Subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)

	t.Run("GET /api/orders starts empty in customer scope", func(t *testing.T) {
		w := doJSON(t, server, http.MethodGet, "/api/orders", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		body := decode[ordersBody](t, w)
		assert.Equal(t, model.ScopeCustomer, body.Scope)
		assert.Zero(t, body.Count)
	})

	t.Run("owner routes are not served", func(t *testing.T) {
		w := doJSON(t, server, http.MethodGet, "/api/revenue", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("adding before selecting a shop is rejected", func(t *testing.T) {
		w := doJSON(t, server, http.MethodPost, "/api/cart/items", map[string]string{"item_id": "A"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[model.ErrorResponse](t, w)
		assert.Equal(t, model.ErrCodeNoShopSelected, body.Error)
	})

	t.Run("browse, fill cart and place an order", func(t *testing.T) {
		w := doJSON(t, server, http.MethodGet, "/api/shops", nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, server, http.MethodPost, "/api/shops/S1/select", nil)
		require.Equal(t, http.StatusOK, w.Code)
		view := decode[service.ShopView](t, w)
		assert.Len(t, view.Items, 2)
		require.NotNil(t, view.PaymentDetails)

		require.Equal(t, http.StatusOK, doJSON(t, server, http.MethodPost, "/api/cart/items", map[string]string{"item_id": "A"}).Code)
		require.Equal(t, http.StatusOK, doJSON(t, server, http.MethodPost, "/api/cart/items", map[string]string{"item_id": "B"}).Code)
		w = doJSON(t, server, http.MethodPut, "/api/cart/items/A", map[string]int{"quantity": 2})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, server, http.MethodGet, "/api/cart", nil)
		var snap struct {
			ShopID string          `json:"shop_id"`
			Total  decimal.Decimal `json:"total"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
		assert.Equal(t, "S1", snap.ShopID)
		assert.True(t, decimal.RequireFromString("6.25").Equal(snap.Total), snap.Total.String())

		w = doJSON(t, server, http.MethodPost, "/api/checkout/submit", nil)
		assert.Equal(t, http.StatusConflict, w.Code, "submit before checkout starts")

		w = doJSON(t, server, http.MethodPost, "/api/checkout", map[string]string{"payment_method": "jazzcash"})
		require.Equal(t, http.StatusOK, w.Code)
		status := decode[checkout.Status](t, w)
		assert.Equal(t, checkout.AwaitingProof, status.State)
		assert.False(t, status.CanSubmit)

		var form bytes.Buffer
		mw := multipart.NewWriter(&form)
		part, err := mw.CreateFormFile("image", "receipt.png")
		require.NoError(t, err)
		_, err = part.Write(pngHeader)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		w = doRequest(t, server, http.MethodPost, "/api/checkout/proof", &form, mw.FormDataContentType())
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, 1, fb.Uploads())

		w = doJSON(t, server, http.MethodPost, "/api/checkout/submit", nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		order := decode[model.Order](t, w)
		assert.Equal(t, "O1", order.OrderID)
		assert.True(t, decimal.RequireFromString("6.25").Equal(order.TotalPrice))

		w = doJSON(t, server, http.MethodGet, "/api/cart", nil)
		var emptied struct {
			Lines []model.CartLine `json:"lines"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&emptied))
		assert.Empty(t, emptied.Lines)

		w = doJSON(t, server, http.MethodGet, "/api/orders", nil)
		body := decode[ordersBody](t, w)
		require.Equal(t, 1, body.Count)
		assert.Equal(t, "O1", body.Orders[0].OrderID)
	})

	t.Run("pushed status change reaches the order detail", func(t *testing.T) {
		w := doJSON(t, server, http.MethodGet, "/api/orders/O1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		fb.SetStatus("O1", model.StatusAccepted)

		require.Eventually(t, func() bool {
			o, ok := stack.Dashboard.(service.CustomerService)
			if !ok {
				return false
			}
			for _, order := range o.Orders() {
				if order.OrderID == "O1" {
					return order.Status == model.StatusAccepted
				}
			}
			return false
		}, 5*time.Second, 10*time.Millisecond)

		w = doJSON(t, server, http.MethodGet, "/api/notices", nil)
		notices := decode[noticesBody](t, w)
		assert.True(t, hasNotice(notices.Notices, "Order placed successfully"))
		assert.True(t, hasNotice(notices.Notices, "O1 is now accepted"))
	})

	t.Run("GET /api/orders/{id} returns 404 for unknown order", func(t *testing.T) {
		w := doJSON(t, server, http.MethodGet, "/api/orders/O404", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		body := decode[model.ErrorResponse](t, w)
		assert.Equal(t, model.ErrCodeOrderNotFound, body.Error)
	})

	t.Run("requests without API key are rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		w := httptest.NewRecorder()
		server.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestOwnerAPI_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	mr := miniredis.RunT(t)
	store, err := session.NewRedisStoreFromURL(context.Background(), "redis://"+mr.Addr()+"/0", time.Hour, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	fb := NewFakeBackend(t)
	fb.AddOrder(model.Order{
		OrderID:       "O1",
		ShopID:        "S1",
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
		TotalPrice:    decimal.RequireFromString("7.50"),
		CreatedAt:     time.Now().UTC().Add(-time.Minute),
	})

	stack := SetupStack(t, fb, store, ownerToken)
	server := stack.Handler
	owner, ok := stack.Dashboard.(service.OwnerService)
	require.True(t, ok)

	require.Eventually(t, func() bool { return fb.Subscribers() == 1 }, 5*time.Second, 10*time.Millisecond)

	t.Run("initial load is enriched with payment info", func(t *testing.T) {
		w := doJSON(t, server, http.MethodGet, "/api/orders", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode[ordersBody](t, w)
		assert.Equal(t, model.ScopeOwner, body.Scope)
		require.Equal(t, 1, body.Count)
		require.NotNil(t, body.Orders[0].PaymentInfo)
		assert.Equal(t, "P-O1", body.Orders[0].PaymentInfo.PaymentID)
		require.NotNil(t, body.Orders[0].PaymentInfo.Payment)
		assert.Equal(t, model.MethodJazzCash, body.Orders[0].PaymentInfo.Payment.Method)
	})

	t.Run("customer routes are not served", func(t *testing.T) {
		w := doJSON(t, server, http.MethodGet, "/api/cart", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("payment status update arrives through push", func(t *testing.T) {
		w := doJSON(t, server, http.MethodPut, "/api/orders/O1/payment-status", map[string]string{"status": "verified"})
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

		require.Eventually(t, func() bool {
			for _, o := range owner.Orders() {
				if o.OrderID == "O1" {
					return o.PaymentStatus == model.PaymentVerified && o.PaymentInfo != nil
				}
			}
			return false
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("order status update arrives through push", func(t *testing.T) {
		w := doJSON(t, server, http.MethodPut, "/api/orders/O1/status", map[string]string{"status": "preparing"})
		require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

		require.Eventually(t, func() bool {
			o, ok := fb.Order("O1")
			return ok && o.Status == model.StatusPreparing
		}, 5*time.Second, 10*time.Millisecond)
		require.Eventually(t, func() bool {
			for _, o := range owner.Orders() {
				if o.OrderID == "O1" {
					return o.Status == model.StatusPreparing
				}
			}
			return false
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("invalid status is rejected locally", func(t *testing.T) {
		w := doJSON(t, server, http.MethodPut, "/api/orders/O1/status", map[string]string{"status": "teleported"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode[model.ErrorResponse](t, w)
		assert.Equal(t, model.ErrCodeInvalidStatus, body.Error)
	})

	t.Run("pushed new order is enriched in the background", func(t *testing.T) {
		fb.AddOrder(model.Order{
			OrderID:       "O2",
			ShopID:        "S1",
			Status:        model.StatusPending,
			PaymentStatus: model.PaymentPending,
			CreatedAt:     time.Now().UTC(),
		})

		require.Eventually(t, func() bool {
			orders := owner.Orders()
			return len(orders) == 2 && orders[0].OrderID == "O2" && orders[0].PaymentInfo != nil
		}, 5*time.Second, 10*time.Millisecond)

		w := doJSON(t, server, http.MethodGet, "/api/notices", nil)
		notices := decode[noticesBody](t, w)
		assert.True(t, hasNotice(notices.Notices, "New order received"))
	})

	t.Run("GET /api/revenue reports the first shop", func(t *testing.T) {
		w := doJSON(t, server, http.MethodGet, "/api/revenue", nil)

		require.Equal(t, http.StatusOK, w.Code)
		report := decode[model.ShopDashboard](t, w)
		assert.Equal(t, "Chai Corner", report.ShopDetails.Name)
		assert.True(t, decimal.RequireFromString("7.50").Equal(report.Revenue))
	})
}

func TestSessionRestore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	fb := NewFakeBackend(t)
	logger := zerolog.Nop()
	ctx := context.Background()
	auth := backend.NewClient(fb.APIURL(), 5*time.Second, nil, logger)

	t.Run("session survives a restart", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		store := session.NewPostgresStore(testDB.Pool, time.Hour, logger)

		first := session.NewManager(auth, store, "default", fb.APIURL(), logger)
		_, err := first.Login(ctx, ownerToken)
		require.NoError(t, err)

		second := session.NewManager(auth, store, "default", fb.APIURL(), logger)
		restored, err := second.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, ownerToken, restored.Token)
		assert.Equal(t, model.ScopeOwner, restored.Scope())
	})

	t.Run("refused login leaves nothing stored", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		store := session.NewPostgresStore(testDB.Pool, time.Hour, logger)

		m := session.NewManager(auth, store, "default", fb.APIURL(), logger)
		_, err := m.Login(ctx, "stolen-token")
		require.Error(t, err)

		_, err = store.Load(ctx, "default")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("logout clears the stored session", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)
		store := session.NewPostgresStore(testDB.Pool, time.Hour, logger)

		m := session.NewManager(auth, store, "default", fb.APIURL(), logger)
		_, err := m.Login(ctx, customerToken)
		require.NoError(t, err)
		require.NoError(t, m.Logout(ctx))

		_, err = session.NewManager(auth, store, "default", fb.APIURL(), logger).Restore(ctx)
		assert.ErrorIs(t, err, model.ErrNotAuthenticated)
	})
}
