package auth

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/director74/order_saga/pkg/errors"
)

const customerKey = "auth.customer"

type AuthMiddleware struct {
	tokens *TokenManager
}

func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
	}
}

// AuthRequired отклоняет запросы без корректного заголовка "Bearer <token>"
func (m *AuthMiddleware) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			apperrors.HandleGinError(c, apperrors.NewUnauthorizedError("нужен Bearer-токен"))
			return
		}

		customer, err := m.tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			msg := "недействительный токен"
			if errors.Is(err, ErrTokenExpired) {
				msg = "срок действия токена истек"
			}
			apperrors.HandleGinError(c, apperrors.NewUnauthorizedError(msg))
			return
		}

		SetCustomer(c, customer)
		c.Next()
	}
}

func SetCustomer(c *gin.Context, customer Customer) {
	c.Set(customerKey, customer)
}

// CustomerFromContext возвращает покупателя, сохраненного AuthRequired
func CustomerFromContext(c *gin.Context) (Customer, bool) {
	v, ok := c.Get(customerKey)
	if !ok {
		return Customer{}, false
	}
	customer, ok := v.(Customer)
	return customer, ok
}

// CustomerID равен нулю на маршрутах без AuthRequired
func CustomerID(c *gin.Context) uint {
	customer, _ := CustomerFromContext(c)
	return customer.ID
}
