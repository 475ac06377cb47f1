package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient starts a fake backend serving mux and returns a client for it.
func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/api/", 5*time.Second, StaticToken("session-token"), zerolog.Nop())
}

func writeBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestClient_SetsAuthAndRequestID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/getAllShops", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))
		_, err := uuid.Parse(r.Header.Get("X-Request-ID"))
		assert.NoError(t, err)
		writeBody(w, http.StatusOK, `[{"id":"S1","name":"Chai Corner","email":"chai@example.com"}]`)
	})
	client := newTestClient(t, mux)

	shops, err := client.ListShops(context.Background())

	require.NoError(t, err)
	require.Len(t, shops, 1)
	assert.Equal(t, "S1", shops[0].ID)
	assert.Equal(t, "Chai Corner", shops[0].Name)
}

func TestClient_ListMenuItems_StampsShopID(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/shop/S1/getAllMenuItems", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, `{"items":[{"item_id":"A","name":"Tea","price":"2.50"},{"item_id":"B","name":"Samosa","price":1.25}]}`)
	})
	client := newTestClient(t, mux)

	items, err := client.ListMenuItems(context.Background(), "S1")

	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.Equal(t, "S1", item.ShopID)
	}
	assert.True(t, decimal.RequireFromString("2.50").Equal(items[0].UnitPrice))
	assert.True(t, decimal.RequireFromString("1.25").Equal(items[1].UnitPrice))
}

func TestClient_StatusError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/listUserOrders", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusUnauthorized, `{"error":"token expired"}`)
	})
	client := newTestClient(t, mux)

	orders, err := client.ListUserOrders(context.Background())

	require.Error(t, err)
	assert.Nil(t, orders)
	assert.True(t, IsStatus(err, http.StatusUnauthorized))
	assert.Contains(t, err.Error(), "token expired")
}

func TestClient_UploadImage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/imageupload", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "receipt.png", header.Filename)
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		assert.Equal(t, "PNGDATA", string(data))
		writeBody(w, http.StatusOK, `{"data":{"url":"https://x/img.png"}}`)
	})
	client := newTestClient(t, mux)

	url, err := client.UploadImage(context.Background(), "receipt.png", "image/png", strings.NewReader("PNGDATA"))

	require.NoError(t, err)
	assert.Equal(t, "https://x/img.png", url)
}

func TestClient_UploadImage_MissingURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/imageupload", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, `{"data":{}}`)
	})
	client := newTestClient(t, mux)

	_, err := client.UploadImage(context.Background(), "receipt.png", "image/png", strings.NewReader("x"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no url")
}

func TestClient_VerifyPaymentAndCreateOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/verifyPaymentAndCreateOrder", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.Header.Get("Idempotency-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://x/img.png", body["payment_screenshot_url"])
		assert.Equal(t, "S1", body["shop_id"])
		assert.Equal(t, "7.5", body["amount"])
		assert.Equal(t, "jazzcash", body["payment_method"])
		assert.Len(t, body["items"], 1)

		writeBody(w, http.StatusOK, `{"status":"success","order":{"order_id":"O1","status":"pending","payment_status":"pending","total_price":"7.50"}}`)
	})
	client := newTestClient(t, mux)

	req := &model.VerifyPaymentRequest{
		PaymentScreenshotURL: "https://x/img.png",
		ShopID:               "S1",
		Amount:               decimal.RequireFromString("7.50"),
		PaymentMethod:        model.MethodJazzCash,
		Items: []model.CartLine{
			{ItemID: "A", Name: "Tea", UnitPrice: decimal.RequireFromString("2.50"), Quantity: 3},
		},
	}

	resp, err := client.VerifyPaymentAndCreateOrder(context.Background(), req, "key-1")

	require.NoError(t, err)
	require.True(t, resp.Succeeded())
	assert.Equal(t, "O1", resp.Order.OrderID)
	assert.Equal(t, model.StatusPending, resp.Order.Status)
}

func TestClient_UpdateStatuses(t *testing.T) {
	var gotOrder, gotPayment map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/updateOrderStatus/O1", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotOrder))
		writeBody(w, http.StatusOK, `{"message":"ok"}`)
	})
	mux.HandleFunc("PUT /api/updatePaymentStatus/O1", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayment))
		writeBody(w, http.StatusOK, `{"message":"ok"}`)
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	require.NoError(t, client.UpdateOrderStatus(ctx, "O1", model.StatusAccepted))
	require.NoError(t, client.UpdatePaymentStatus(ctx, "O1", "P9", model.PaymentVerified))

	assert.Equal(t, map[string]any{"status": "accepted"}, gotOrder)
	assert.Equal(t, map[string]any{"paymentId": "P9", "status": "verified"}, gotPayment)
}

func TestClient_PaymentEnrichmentEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/getPaymentId/O1", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, `{"paymentInfo":{"payment_id":"P9","customerName":"Ayesha"}}`)
	})
	mux.HandleFunc("GET /api/getPaymentId/O2", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, `{"paymentInfo":{}}`)
	})
	mux.HandleFunc("GET /api/paymentDetails/P9", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, `{"data":{"role":"student","payment":{"method":"jazzcash","screenshotUrl":"https://x/img.png"}}}`)
	})
	client := newTestClient(t, mux)
	ctx := context.Background()

	info, err := client.GetPaymentInfo(ctx, "O1")
	require.NoError(t, err)
	assert.Equal(t, "P9", info.PaymentID)

	record, err := client.GetPaymentRecord(ctx, info.PaymentID)
	require.NoError(t, err)
	info.Merge(*record)
	assert.Equal(t, "Ayesha", info.CustomerName)
	assert.Equal(t, "student", info.Role)
	require.NotNil(t, info.Payment)
	assert.Equal(t, model.MethodJazzCash, info.Payment.Method)

	_, err = client.GetPaymentInfo(ctx, "O2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no payment id")
}

func TestClient_VerifyToken_UsesExplicitToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/verifyToken", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh-token" {
			writeBody(w, http.StatusUnauthorized, `{"error":"invalid token"}`)
			return
		}
		writeBody(w, http.StatusOK, `{"user":{"id":"U1","name":"Ali","role":"student","is_verified":1}}`)
	})
	client := newTestClient(t, mux)

	user, err := client.VerifyToken(context.Background(), "fresh-token")

	require.NoError(t, err)
	assert.Equal(t, "U1", user.ID)
	assert.True(t, user.Verified())
	assert.Equal(t, model.ScopeCustomer, user.Scope())
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseURL := server.URL
	server.Close()

	client := NewClient(baseURL, time.Second, nil, zerolog.Nop())

	_, err := client.ListShops(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "GET /getAllShops")
}
