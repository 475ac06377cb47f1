package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) model.ErrorResponse {
	t.Helper()
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body model.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name          string
		method        string
		expectedCode  int
		expectHandler bool
	}{
		{name: "Preflight is answered directly", method: http.MethodOptions, expectedCode: http.StatusNoContent},
		{name: "GET reaches the handler", method: http.MethodGet, expectedCode: http.StatusOK, expectHandler: true},
		{name: "DELETE reaches the handler", method: http.MethodDelete, expectedCode: http.StatusOK, expectHandler: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			req := httptest.NewRequest(tt.method, "/api/cart", nil)
			w := httptest.NewRecorder()

			CORS(okHandler(&called)).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectHandler, called)
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), RequestIDHeader)
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		apiKey        string
		expectedCode  int
		expectHandler bool
		expectMessage string
	}{
		{
			name:          "Valid key",
			path:          "/api/orders",
			apiKey:        "secret",
			expectedCode:  http.StatusOK,
			expectHandler: true,
		},
		{
			name:          "Wrong key",
			path:          "/api/orders",
			apiKey:        "secrets",
			expectedCode:  http.StatusUnauthorized,
			expectMessage: "invalid API key",
		},
		{
			name:          "Missing key",
			path:          "/api/checkout/submit",
			expectedCode:  http.StatusUnauthorized,
			expectMessage: "missing API key",
		},
		{
			name:          "Health stays open",
			path:          "/health",
			expectedCode:  http.StatusOK,
			expectHandler: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := RequestID(APIKeyAuth("secret", zerolog.Nop())(okHandler(&called)))

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.apiKey != "" {
				req.Header.Set("X-API-Key", tt.apiKey)
			}
			req.Header.Set(RequestIDHeader, "req-7")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedCode, w.Code)
			assert.Equal(t, tt.expectHandler, called)
			if tt.expectMessage != "" {
				body := decodeError(t, w)
				assert.Equal(t, model.ErrCodeUnauthorised, body.Error)
				assert.Contains(t, body.Message, tt.expectMessage)
				assert.Equal(t, "req-7", body.CorrelationID)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		wantSame bool
	}{
		{name: "Generates an id", incoming: ""},
		{name: "Keeps the caller's id", incoming: "req-42", wantSame: true},
		{name: "Replaces an oversized id", incoming: strings.Repeat("x", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFrom(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
			if tt.wantSame {
				assert.Equal(t, tt.incoming, seen)
			} else {
				_, err := uuid.Parse(seen)
				assert.NoError(t, err)
			}
		})
	}
}

func TestLogging_RecordsRequest(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectedLevel string
	}{
		{name: "Success logs at info", status: http.StatusCreated, expectedLevel: "info"},
		{name: "Client error logs at info", status: http.StatusConflict, expectedLevel: "info"},
		{name: "Server error logs at error", status: http.StatusBadGateway, expectedLevel: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := zerolog.New(&buf)
			handler := RequestID(Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})))

			req := httptest.NewRequest(http.MethodPost, "/api/checkout/submit", nil)
			req.Header.Set(RequestIDHeader, "req-9")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, tt.expectedLevel, entry["level"])
			assert.Equal(t, "POST", entry["method"])
			assert.Equal(t, "/api/checkout/submit", entry["path"])
			assert.Equal(t, float64(tt.status), entry["status"])
			assert.Equal(t, "req-9", entry["request_id"])
		})
	}
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name       string
		panicValue any
	}{
		{name: "Panic with string", panicValue: "something went wrong"},
		{name: "Panic with error", panicValue: assert.AnError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := Recovery(zerolog.New(&buf))(RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				panic(tt.panicValue)
			})))

			req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
			req.Header.Set(RequestIDHeader, "req-11")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			require.Equal(t, http.StatusInternalServerError, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, model.ErrCodeInternalError, body.Error)
			assert.Equal(t, "req-11", body.CorrelationID)
			assert.Contains(t, buf.String(), "panic recovered")
		})
	}
}

func TestRecovery_PassesThrough(t *testing.T) {
	called := false
	w := httptest.NewRecorder()

	Recovery(zerolog.Nop())(okHandler(&called)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
}
