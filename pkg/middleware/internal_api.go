package middleware

import (
	"net"

	"github.com/gin-gonic/gin"

	"github.com/director74/order_saga/pkg/config"
	apperrors "github.com/director74/order_saga/pkg/errors"
)

const DefaultHeaderName = "X-Internal-API-Key"

// InternalAuthMiddleware защищает API для межсервисных вызовов.
// Запрос проходит с верным ключом в заголовке или из доверенной сети.
type InternalAuthMiddleware struct {
	headerName      string
	apiKey          string
	trustedNetworks []*net.IPNet
}

func NewInternalAuthMiddleware(cfg config.InternalAPIConfig) *InternalAuthMiddleware {
	headerName := cfg.HeaderName
	if headerName == "" {
		headerName = DefaultHeaderName
	}

	var networks []*net.IPNet
	for _, cidr := range cfg.TrustedNetworks {
		if _, ipNet, err := net.ParseCIDR(cidr); err == nil {
			networks = append(networks, ipNet)
		}
	}

	return &InternalAuthMiddleware{
		headerName:      headerName,
		apiKey:          cfg.APIKey,
		trustedNetworks: networks,
	}
}

func (m *InternalAuthMiddleware) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.apiKey != "" && c.GetHeader(m.headerName) == m.apiKey {
			c.Next()
			return
		}

		if m.isIPTrusted(c.ClientIP()) {
			c.Next()
			return
		}

		apperrors.HandleGinError(c, apperrors.NewForbiddenError("API только для внутренних сервисов"))
	}
}

func (m *InternalAuthMiddleware) isIPTrusted(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}

	for _, ipNet := range m.trustedNetworks {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}
