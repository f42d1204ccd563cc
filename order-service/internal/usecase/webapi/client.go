package webapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"
)

const defaultAPIHeader = "X-Internal-API-Key"

type RetryPolicy struct {
	Attempts uint
	Delay    time.Duration
	MaxDelay time.Duration
}

type ClientConfig struct {
	BaseURL   string
	APIKey    string
	APIHeader string
	Timeout   time.Duration
	Retry     RetryPolicy
}

// StatusError - ответ участника, который не является ни успехом, ни отказом
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s responded with status %d", e.Service, e.Code)
	}
	return fmt.Sprintf("%s responded with status %d: %s", e.Service, e.Code, e.Body)
}

// client выполняет внутренние вызовы, общие для клиентов участников
type client struct {
	service    string
	cfg        ClientConfig
	httpClient *http.Client
	logger     zerolog.Logger
}

func newClient(service string, cfg ClientConfig, logger zerolog.Logger) client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.APIHeader == "" {
		cfg.APIHeader = defaultAPIHeader
	}
	if cfg.Retry.Attempts == 0 {
		cfg.Retry.Attempts = 1
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return client{
		service: service,
		cfg:     cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger.With().Str("collaborator", service).Logger(),
	}
}

// post отправляет body на path. 2xx - true, declineStatus - false, остальное - ошибка.
// Сетевые ошибки и 5xx повторяются, участники отсекают дубли по ID заказа в теле.
func (c client) post(ctx context.Context, path, operation string, orderID uint, body interface{}, declineStatus int) (bool, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return false, fmt.Errorf("ошибка сериализации запроса %s: %w", operation, err)
	}

	var ok bool
	err = retry.Do(
		func() error {
			var callErr error
			ok, callErr = c.do(ctx, path, payload, declineStatus)
			return callErr
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.Retry.Attempts),
		retry.Delay(c.cfg.Retry.Delay),
		retry.MaxDelay(c.cfg.Retry.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn().Err(err).Uint("attempt", n+1).Uint("order_id", orderID).
				Str("operation", operation).Msg("вызов участника не удался, повторяем")
		}),
	)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", c.service, operation, err)
	}
	return ok, nil
}

func (c client) do(ctx context.Context, path string, payload []byte, declineStatus int) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return false, retry.Unrecoverable(fmt.Errorf("ошибка при создании запроса: %w", err))
	}

	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set(c.cfg.APIHeader, c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	case resp.StatusCode == declineStatus:
		var decline struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&decline); err == nil && decline.Message != "" {
			c.logger.Info().Str("path", path).Str("reason", decline.Message).Msg("участник отказал")
		}
		return false, nil
	default:
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, &StatusError{Service: c.service, Code: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}
}

// isRetryable повторяет сетевые ошибки и ошибки сервера, но не 4xx
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError
	}
	return true
}
