package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/database"
	"storefront/internal/ledger"
	"storefront/internal/live"
	"storefront/internal/model"
	"storefront/internal/proof"
	"storefront/internal/router"
	"storefront/internal/service"
	"storefront/internal/session"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testAPIKey    = "test-api-key"
	customerToken = "customer-token"
	ownerToken    = "owner-token"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container holding the session schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB removes every stored session.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "DELETE FROM dashboard_sessions"); err != nil {
		t.Logf("failed to clean table dashboard_sessions: %v", err)
	}
}

// FakeBackend is an in-process storefront backend. It keeps orders in
// memory and pushes changes to every connected live socket.
type FakeBackend struct {
	Server *httptest.Server

	mu       sync.Mutex
	orders   []model.Order
	nextID   int
	sockets  []*websocket.Conn
	uploads  int
	upgrader websocket.Upgrader
}

// NewFakeBackend starts a fake backend with one shop (S1) selling Tea and
// Samosa, paid through jazzcash.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{nextID: 1}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/verifyToken", fb.verifyToken)
	mux.HandleFunc("GET /api/getAllShops", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, []model.Shop{{ID: "S1", Name: "Chai Corner", Email: "chai@example.com"}})
	})
	mux.HandleFunc("GET /api/shop/S1/getAllMenuItems", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, map[string]any{"items": []model.MenuItem{
			{ID: "A", Name: "Tea", UnitPrice: decimal.RequireFromString("2.50")},
			{ID: "B", Name: "Samosa", UnitPrice: decimal.RequireFromString("1.25")},
		}})
	})
	mux.HandleFunc("GET /api/shop/S1/payment-details", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, model.PaymentDetails{Methods: []model.PaymentMethod{
			{ID: "PM1", Type: model.MethodJazzCash, Details: []string{"0300-1234567"}},
		}})
	})
	mux.HandleFunc("POST /api/imageupload", fb.imageUpload)
	mux.HandleFunc("POST /api/verifyPaymentAndCreateOrder", fb.verifyPayment)
	mux.HandleFunc("GET /api/listUserOrders", fb.listOrders)
	mux.HandleFunc("GET /api/listShopOrders", fb.listOrders)
	mux.HandleFunc("GET /api/getPaymentId/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, map[string]any{"paymentInfo": model.PaymentInfo{
			PaymentID:    "P-" + r.PathValue("id"),
			CustomerName: "Ayesha",
		}})
	})
	mux.HandleFunc("GET /api/paymentDetails/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, map[string]any{"data": model.PaymentInfo{
			Role:    "student",
			Payment: &model.PaymentRecord{Method: model.MethodJazzCash, ScreenshotURL: "https://img.example.com/1.png"},
		}})
	})
	mux.HandleFunc("PUT /api/updateOrderStatus/{id}", fb.updateOrderStatus)
	mux.HandleFunc("PUT /api/updatePaymentStatus/{id}", fb.updatePaymentStatus)
	mux.HandleFunc("GET /api/ownerShops", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, map[string]any{"shops": []model.Shop{{ID: "S1", Name: "Chai Corner"}}})
	})
	mux.HandleFunc("GET /api/shopDashboard/S1", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, http.StatusOK, model.ShopDashboard{
			ShopDetails: model.ShopSummary{Name: "Chai Corner", TotalOrders: fb.orderCount()},
			Revenue:     decimal.RequireFromString("7.50"),
		})
	})
	mux.HandleFunc("GET /live", fb.live)

	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Close)
	return fb
}

// APIURL is the REST base URL.
func (fb *FakeBackend) APIURL() string {
	return fb.Server.URL + "/api"
}

// LiveURL is the push endpoint.
func (fb *FakeBackend) LiveURL() string {
	return "ws" + strings.TrimPrefix(fb.Server.URL, "http") + "/live"
}

// Close drops every socket and stops the server.
func (fb *FakeBackend) Close() {
	fb.mu.Lock()
	for _, c := range fb.sockets {
		c.Close()
	}
	fb.sockets = nil
	fb.mu.Unlock()
	fb.Server.Close()
}

// Subscribers returns the number of connected live sockets.
func (fb *FakeBackend) Subscribers() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.sockets)
}

// Uploads returns how many screenshots were uploaded.
func (fb *FakeBackend) Uploads() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.uploads
}

// AddOrder stores order and announces it as new.
func (fb *FakeBackend) AddOrder(order model.Order) {
	fb.mu.Lock()
	fb.orders = append(fb.orders, order)
	fb.mu.Unlock()
	fb.push(live.Event{Kind: live.KindNewOrder, Order: order})
}

// SetStatus changes the status of an order and announces the update.
func (fb *FakeBackend) SetStatus(orderID string, status model.OrderStatus) {
	fb.mu.Lock()
	var updated *model.Order
	for i := range fb.orders {
		if fb.orders[i].OrderID == orderID {
			fb.orders[i].Status = status
			fb.orders[i].UpdatedAt = time.Now().UTC()
			o := fb.orders[i]
			updated = &o
		}
	}
	fb.mu.Unlock()
	if updated != nil {
		fb.push(live.Event{Kind: live.KindOrderUpdate, Order: *updated})
	}
}

// Order returns the stored order with id.
func (fb *FakeBackend) Order(id string) (model.Order, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, o := range fb.orders {
		if o.OrderID == id {
			return o, true
		}
	}
	return model.Order{}, false
}

func (fb *FakeBackend) orderCount() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.orders)
}

func (fb *FakeBackend) push(event live.Event) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, c := range fb.sockets {
		_ = c.WriteJSON(event)
	}
}

func (fb *FakeBackend) verifyToken(w http.ResponseWriter, r *http.Request) {
	switch r.Header.Get("Authorization") {
	case "Bearer " + customerToken:
		writeBody(w, http.StatusOK, map[string]any{"user": model.User{ID: "U1", Name: "Ali", Role: "student", IsVerified: 1}})
	case "Bearer " + ownerToken:
		writeBody(w, http.StatusOK, map[string]any{"user": model.User{ID: "U9", Name: "Bilal", Role: "shop_owner", IsVerified: 1}})
	default:
		writeBody(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
	}
}

func (fb *FakeBackend) imageUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("image")
	if err != nil {
		writeBody(w, http.StatusBadRequest, map[string]string{"error": "image is required"})
		return
	}
	defer file.Close()
	_, _ = io.Copy(io.Discard, file)

	fb.mu.Lock()
	fb.uploads++
	n := fb.uploads
	fb.mu.Unlock()

	writeBody(w, http.StatusOK, map[string]any{"data": map[string]string{
		"url": fmt.Sprintf("https://img.example.com/%d/%s", n, header.Filename),
	}})
}

func (fb *FakeBackend) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var req model.VerifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBody(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if req.PaymentScreenshotURL == "" || len(req.Items) == 0 {
		writeBody(w, http.StatusOK, map[string]string{"status": "failed", "message": "payment could not be verified"})
		return
	}

	items := make([]model.OrderItem, 0, len(req.Items))
	for _, l := range req.Items {
		items = append(items, model.OrderItem{ItemID: l.ItemID, Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}

	fb.mu.Lock()
	now := time.Now().UTC()
	order := model.Order{
		OrderID:       fmt.Sprintf("O%d", fb.nextID),
		ShopID:        req.ShopID,
		UserID:        "U1",
		Items:         items,
		TotalPrice:    req.Amount,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	fb.nextID++
	fb.orders = append(fb.orders, order)
	fb.mu.Unlock()

	writeBody(w, http.StatusOK, model.VerifyPaymentResponse{Status: "success", Order: &order})
}

func (fb *FakeBackend) listOrders(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	orders := append([]model.Order(nil), fb.orders...)
	fb.mu.Unlock()
	writeBody(w, http.StatusOK, map[string]any{"orders": orders})
}

func (fb *FakeBackend) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeBody(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}
	if _, ok := fb.Order(r.PathValue("id")); !ok {
		writeBody(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	fb.SetStatus(r.PathValue("id"), body.Status)
	writeBody(w, http.StatusOK, map[string]string{"message": "updated"})
}

func (fb *FakeBackend) updatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PaymentID string              `json:"paymentId"`
		Status    model.PaymentStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PaymentID == "" {
		writeBody(w, http.StatusBadRequest, map[string]string{"error": "paymentId is required"})
		return
	}

	fb.mu.Lock()
	var updated *model.Order
	for i := range fb.orders {
		if fb.orders[i].OrderID == r.PathValue("id") {
			fb.orders[i].PaymentStatus = body.Status
			o := fb.orders[i]
			updated = &o
		}
	}
	fb.mu.Unlock()
	if updated == nil {
		writeBody(w, http.StatusNotFound, map[string]string{"error": "order not found"})
		return
	}
	fb.push(live.Event{Kind: live.KindOrderUpdate, Order: *updated})
	writeBody(w, http.StatusOK, map[string]string{"message": "updated"})
}

func (fb *FakeBackend) live(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if auth != "Bearer "+customerToken && auth != "Bearer "+ownerToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	conn, err := fb.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	fb.mu.Lock()
	fb.sockets = append(fb.sockets, conn)
	fb.mu.Unlock()

	// Drain control frames until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	fb.mu.Lock()
	for i, c := range fb.sockets {
		if c == conn {
			fb.sockets = append(fb.sockets[:i], fb.sockets[i+1:]...)
			break
		}
	}
	fb.mu.Unlock()
	conn.Close()
}

func writeBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Stack is a fully wired dashboard behind the local HTTP API.
type Stack struct {
	Sessions  *session.Manager
	Session   *session.Session
	Dashboard service.Dashboard
	Handler   http.Handler
}

// SetupStack logs in with token against fb, persisting the session in store,
// and opens the matching dashboard with a websocket channel.
func SetupStack(t *testing.T, fb *FakeBackend, store session.Store, token string) *Stack {
	t.Helper()

	ctx := context.Background()
	logger := zerolog.Nop()

	authClient := backend.NewClient(fb.APIURL(), 5*time.Second, nil, logger)
	sessions := session.NewManager(authClient, store, "default", fb.APIURL(), logger)
	sess, err := sessions.Login(ctx, token)
	require.NoError(t, err)

	client := backend.NewClient(fb.APIURL(), 5*time.Second, sessions, logger)
	transport := live.NewWebSocketTransport(fb.LiveURL(), sess.Scope(), sessions, time.Second, logger)
	channel := live.NewChannel(transport, 10*time.Millisecond, 100*time.Millisecond, logger)

	var dashboard service.Dashboard
	if sess.Scope() == model.ScopeOwner {
		enricher := ledger.NewEnricher(client, logger)
		orders := ledger.New(ledger.ShopOrders(client), enricher, logger)
		dashboard = service.NewOwnerDashboard(client, client, orders, enricher,
			ledger.NewRefresher(orders, 0, logger), channel, logger)
	} else {
		orders := ledger.New(ledger.CustomerOrders(client), nil, logger)
		handoff := checkout.New(client, client, proof.NewFileSource(logger), logger)
		dashboard = service.NewCustomerDashboard(catalog.New(client, logger), cart.New(logger), handoff,
			orders, ledger.NewRefresher(orders, 0, logger), channel, logger)
	}

	require.NoError(t, dashboard.Open(ctx))
	t.Cleanup(dashboard.Close)

	return &Stack{
		Sessions:  sessions,
		Session:   sess,
		Dashboard: dashboard,
		Handler:   router.New(router.HandlersFor(dashboard, logger), testAPIKey, logger),
	}
}
