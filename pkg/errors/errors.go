package errors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Общие ошибки, по ним выбирается HTTP-статус
var (
	ErrNotFound     = errors.New("ресурс не найден")
	ErrUnauthorized = errors.New("не авторизован")
	ErrForbidden    = errors.New("доступ запрещен")
	ErrBadRequest   = errors.New("некорректный запрос")
	ErrConflict     = errors.New("конфликт состояния")
)

// AppendPrefix оборачивает err с префиксом, nil остается nil
func AppendPrefix(err error, prefix string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", prefix, err)
}

// LogError пишет ошибку в глобальный логгер
func LogError(err error, context string) {
	if err == nil {
		return
	}
	log.Error().Err(err).Str("context", context).Msg("ошибка")
}

// ErrorGroup собирает ошибки нескольких независимых операций
type ErrorGroup struct {
	errors []error
}

func NewErrorGroup() *ErrorGroup {
	return &ErrorGroup{
		errors: make([]error, 0),
	}
}

// Add пропускает nil
func (g *ErrorGroup) Add(err error) {
	if err != nil {
		g.errors = append(g.errors, err)
	}
}

func (g *ErrorGroup) AddPrefix(err error, prefix string) {
	if err != nil {
		g.errors = append(g.errors, AppendPrefix(err, prefix))
	}
}

func (g *ErrorGroup) HasErrors() bool {
	return len(g.errors) > 0
}

// Err возвращает группу как одну ошибку или nil, если ошибок нет
func (g *ErrorGroup) Err() error {
	if !g.HasErrors() {
		return nil
	}
	return g
}

func (g *ErrorGroup) Error() string {
	var sb strings.Builder
	for i, err := range g.errors {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func (g *ErrorGroup) Unwrap() []error {
	return g.errors
}
