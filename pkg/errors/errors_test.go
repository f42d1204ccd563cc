package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundErrorIsSentinel(t *testing.T) {
	err := fmt.Errorf("repo: %w", NewNotFoundError("заказ", 42))

	assert.True(t, errors.Is(err, ErrNotFound))

	code, body := ToHTTPResponse(err)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Не найдено: заказ с ID=42", body.(HTTPErrorResponse).Error)
}

func TestToHTTPResponseSentinels(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{AppendPrefix(ErrNotFound, "x"), http.StatusNotFound},
		{AppendPrefix(ErrConflict, "x"), http.StatusConflict},
		{AppendPrefix(ErrBadRequest, "x"), http.StatusBadRequest},
		{AppendPrefix(ErrForbidden, "x"), http.StatusForbidden},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		code, _ := ToHTTPResponse(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestErrorGroup(t *testing.T) {
	g := NewErrorGroup()
	g.Add(nil)
	assert.False(t, g.HasErrors())
	assert.NoError(t, g.Err())

	g.Add(ErrNotFound)
	g.AddPrefix(errors.New("closed"), "db")

	require.Error(t, g.Err())
	assert.Equal(t, "ресурс не найден; db: closed", g.Error())
	assert.True(t, errors.Is(g.Err(), ErrNotFound))
}

func TestAppendPrefixNil(t *testing.T) {
	assert.NoError(t, AppendPrefix(nil, "prefix"))
}

func TestHandleGinError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	handled := HandleGinError(c, NewBadRequestError("количество должно быть больше нуля"))

	assert.True(t, handled)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body HTTPErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Некорректный запрос: количество должно быть больше нуля", body.Error)
}

func TestRecoveryMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RecoveryMiddleware())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Внутренняя ошибка сервера"}`, w.Body.String())
}

func TestAccessErrors(t *testing.T) {
	tests := []struct {
		err     *ServiceError
		code    int
		message string
		target  error
	}{
		{NewUnauthorizedError("token expired"), http.StatusUnauthorized, "Требуется авторизация: token expired", ErrUnauthorized},
		{NewUnauthorizedError(""), http.StatusUnauthorized, "Требуется авторизация", ErrUnauthorized},
		{NewForbiddenError("internal only"), http.StatusForbidden, "Доступ запрещен: internal only", ErrForbidden},
	}

	for _, tt := range tests {
		code, body := ToHTTPResponse(tt.err)
		assert.Equal(t, tt.code, code)
		assert.Equal(t, tt.message, body.(HTTPErrorResponse).Error)
		assert.ErrorIs(t, tt.err, tt.target)
	}
}

func TestInternalServerErrorHidesCause(t *testing.T) {
	cause := errors.New("pq: connection reset")
	err := NewInternalServerError(cause)

	code, body := ToHTTPResponse(err)

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Внутренняя ошибка сервера", body.(HTTPErrorResponse).Error)
	assert.ErrorIs(t, err, cause)
}
