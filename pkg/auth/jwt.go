package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("недействительный токен")
	ErrTokenExpired = errors.New("срок действия токена истек")
)

// Customer - покупатель, на которого выпущен токен
type Customer struct {
	ID    uint   `json:"customer_id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type customerClaims struct {
	Customer
	jwt.RegisteredClaims
}

type Config struct {
	SigningKey string
	TTL        time.Duration
	Issuer     string
	// Audience пишется в выпущенные токены, при разборе требуется первый элемент
	Audience []string
	Leeway   time.Duration
}

func NewConfig(signingKey string) Config {
	return Config{
		SigningKey: signingKey,
		TTL:        24 * time.Hour,
		Issuer:     "order-service",
		Audience:   []string{"order-api"},
		Leeway:     30 * time.Second,
	}
}

// TokenManager выпускает и проверяет HS256-токены покупателей
type TokenManager struct {
	cfg    Config
	parser *jwt.Parser
	now    func() time.Time
}

func NewTokenManager(cfg Config) *TokenManager {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if len(cfg.Audience) > 0 {
		opts = append(opts, jwt.WithAudience(cfg.Audience[0]))
	}

	return &TokenManager{
		cfg:    cfg,
		parser: jwt.NewParser(opts...),
		now:    time.Now,
	}
}

func (m *TokenManager) Issue(customer Customer) (string, error) {
	if customer.ID == 0 {
		return "", fmt.Errorf("%w: не указан ID покупателя", ErrInvalidToken)
	}

	now := m.now()
	claims := customerClaims{
		Customer: customer,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", customer.ID),
			Issuer:    m.cfg.Issuer,
			Audience:  m.cfg.Audience,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.cfg.SigningKey))
}

// Parse возвращает ErrTokenExpired для просроченного токена и ErrInvalidToken во всех остальных случаях
func (m *TokenManager) Parse(token string) (Customer, error) {
	var claims customerClaims
	_, err := m.parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(m.cfg.SigningKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Customer{}, ErrTokenExpired
		}
		return Customer{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Customer.ID == 0 {
		return Customer{}, fmt.Errorf("%w: в токене нет ID покупателя", ErrInvalidToken)
	}
	return claims.Customer, nil
}
