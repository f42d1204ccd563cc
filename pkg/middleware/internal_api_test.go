package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/director74/order_saga/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newInternalRouter(cfg config.InternalAPIConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/internal", NewInternalAuthMiddleware(cfg).Required(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestInternalAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		networks   []string
		remoteAddr string
		key        string
		code       int
	}{
		{"valid key from outside", nil, "203.0.113.5:1234", "s3cret", http.StatusOK},
		{"wrong key from outside", nil, "203.0.113.5:1234", "nope", http.StatusForbidden},
		{"no key from trusted network", []string{"10.0.0.0/8"}, "10.1.2.3:1234", "", http.StatusOK},
		{"invalid cidr is ignored", []string{"not-a-cidr"}, "10.1.2.3:1234", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newInternalRouter(config.InternalAPIConfig{
				TrustedNetworks: tt.networks,
				APIKey:          "s3cret",
			})

			req := httptest.NewRequest(http.MethodPost, "/internal", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.key != "" {
				req.Header.Set(DefaultHeaderName, tt.key)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusForbidden {
				assert.JSONEq(t, `{"error":"Доступ запрещен: API только для внутренних сервисов"}`, w.Body.String())
			}
		})
	}
}
