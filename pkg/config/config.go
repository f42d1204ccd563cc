package config

import (
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// CommonConfig - настройки, общие для всех сервисов
type CommonConfig struct {
	HTTP     HTTPConfig
	Postgres PostgresConfig
	RabbitMQ RabbitMQConfig
	Log      LogConfig
}

// HTTPConfig - настройки HTTP-сервера
type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PostgresConfig - параметры подключения к PostgreSQL
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RabbitMQConfig - параметры подключения к RabbitMQ
type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	VHost    string
}

// LogConfig - настройки логгера
type LogConfig struct {
	Level string
}

// JWTConfig - настройки JWT
type JWTConfig struct {
	SigningKey string
	TTL        time.Duration
	Issuer     string
	Audience   []string
}

// InternalAPIConfig - настройки защиты межсервисного API
type InternalAPIConfig struct {
	TrustedNetworks []string
	APIKey          string
	HeaderName      string
}

// LoadCommonConfig загружает общую конфигурацию из окружения
func LoadCommonConfig(serviceName string, port string) *CommonConfig {
	// .env может отсутствовать
	godotenv.Load()

	return &CommonConfig{
		HTTP: HTTPConfig{
			Port:         GetEnv("HTTP_PORT", port),
			ReadTimeout:  GetEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: GetEnvAsDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		},
		Postgres: PostgresConfig{
			Host:     GetEnv("POSTGRES_HOST", "localhost"),
			Port:     GetEnv("POSTGRES_PORT", "5432"),
			User:     GetEnv("POSTGRES_USER", "postgres"),
			Password: GetEnv("POSTGRES_PASSWORD", "postgres"),
			DBName:   GetEnv("POSTGRES_DB", serviceName),
			SSLMode:  GetEnv("POSTGRES_SSLMODE", "disable"),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     GetEnv("RABBITMQ_HOST", "localhost"),
			Port:     GetEnv("RABBITMQ_PORT", "5672"),
			User:     GetEnv("RABBITMQ_USER", "guest"),
			Password: GetEnv("RABBITMQ_PASSWORD", "guest"),
			VHost:    GetEnv("RABBITMQ_VHOST", "/"),
		},
		Log: LogConfig{
			Level: GetEnv("LOG_LEVEL", "info"),
		},
	}
}

// LoadJWTConfig загружает настройки JWT из окружения
func LoadJWTConfig(serviceName string) *JWTConfig {
	signingKey := GetEnv("JWT_SIGNING_KEY", "")
	if signingKey == "" {
		signingKey = GenerateRandomKey(32)
		log.Warn().Msg("JWT_SIGNING_KEY не задан, используется случайный ключ; токены, выпущенные другими сервисами, не пройдут проверку")
	}

	return &JWTConfig{
		SigningKey: signingKey,
		TTL:        GetEnvAsDuration("JWT_TOKEN_TTL", 24*time.Hour),
		Issuer:     GetEnv("JWT_TOKEN_ISSUER", serviceName),
		Audience:   GetEnvAsList("JWT_TOKEN_AUDIENCES", []string{"order-api"}),
	}
}

// LoadInternalAPIConfig загружает настройки защиты внутреннего API
func LoadInternalAPIConfig() InternalAPIConfig {
	return InternalAPIConfig{
		TrustedNetworks: GetEnvAsList("INTERNAL_TRUSTED_NETWORKS", []string{
			"10.0.0.0/8",     // сеть подов Kubernetes
			"172.16.0.0/12",  // bridge-сеть Docker
			"192.168.0.0/16", // локальная сеть
			"127.0.0.0/8",    // localhost
		}),
		APIKey:     GetEnv("INTERNAL_API_KEY", "internal-api-key-for-development"),
		HeaderName: GetEnv("INTERNAL_API_HEADER", "X-Internal-API-Key"),
	}
}

// GenerateRandomKey возвращает случайный буквенно-цифровой ключ заданной длины
func GenerateRandomKey(length int) string {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[r.Intn(len(charset))]
	}
	return string(b)
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func GetEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := GetEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := GetEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := GetEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// GetEnvAsList разбивает значение по запятым, пустые элементы отбрасываются
func GetEnvAsList(key string, defaultValue []string) []string {
	valueStr := strings.TrimSpace(GetEnv(key, ""))
	if valueStr == "" {
		return defaultValue
	}

	var result []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
