package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WithFieldsProducesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(false, &buf)

	logger.WithFields(map[string]any{"account_id": "a-1"}).Info("step computed", "step", "phone_pending")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "step computed", entry["msg"])
	assert.Equal(t, "a-1", entry["account_id"])
	assert.Equal(t, "phone_pending", entry["step"])
}

func TestLogger_WithErrorNil(t *testing.T) {
	logger := NewLoggerWithWriter(false, &bytes.Buffer{})
	assert.Same(t, logger, logger.WithError(nil))
}

func TestRequestLogger_InjectsLoggerAndLogsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(false, &buf)

	var fromCtx *Logger
	h := middleware.RequestID(RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fromCtx = GetLoggerFromContext(r.Context())
		w.WriteHeader(http.StatusConflict)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/account/phone/send-code", nil))

	require.NotNil(t, fromCtx)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, buf.String(), `"status":409`)
	assert.Contains(t, buf.String(), `"level":"WARN"`)
}

func TestGetLoggerFromContext_Fallback(t *testing.T) {
	assert.NotNil(t, GetLoggerFromContext(context.Background()))
}
