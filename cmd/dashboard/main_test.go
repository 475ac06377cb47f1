package main

import (
	"net/http"
	"testing"
	"time"

	"storefront/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestNewServer_WriteTimeoutCoversBackendCall(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
	}{
		{name: "Default backend timeout", timeout: 30 * time.Second},
		{name: "Short backend timeout", timeout: 2 * time.Second},
		{name: "Long backend timeout", timeout: 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Server:  config.ServerConfig{Host: "127.0.0.1", Port: 8080},
				Backend: config.BackendConfig{BaseURL: "http://localhost:5000/api", Timeout: tt.timeout},
			}

			server := newServer(cfg, http.NotFoundHandler())

			assert.Equal(t, "127.0.0.1:8080", server.Addr)
			assert.Greater(t, server.WriteTimeout, tt.timeout)
			assert.Equal(t, tt.timeout+writeTimeoutMargin, server.WriteTimeout)
		})
	}
}
