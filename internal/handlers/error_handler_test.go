package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-label-printer/internal/logger"
	"go-label-printer/internal/repository"
	"go-label-printer/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestErrorHandlerRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.ErrorLevel)
	h := NewErrorHandler(logger.New(zap.New(core)))

	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("load: %w", repository.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: 7", services.ErrTemplateNotFound), http.StatusNotFound},
		{services.ErrNoLines, http.StatusBadRequest},
		{fmt.Errorf("%w: \"PDF417\"", services.ErrUnsupportedSymbology), http.StatusUnprocessableEntity},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

		h.Respond(c, tc.err)
		if w.Code != tc.status {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.status, w.Code)
		}
	}

	if logs.Len() != 1 {
		t.Fatalf("expected only the unexpected error to be logged, got %d entries", logs.Len())
	}
}
