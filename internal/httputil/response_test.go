package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithDetails(rec, "too soon", CodeResendTooSoon, map[string]int{"retry_after": 42}, http.StatusTooManyRequests)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "too soon", body["error"])
	assert.Equal(t, CodeResendTooSoon, body["code"])
	assert.Equal(t, map[string]any{"retry_after": float64(42)}, body["details"])
}

func TestRespondErrorWithCode_OmitsDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondErrorWithCode(rec, "nope", CodePhoneInUse, http.StatusConflict)

	assert.JSONEq(t, `{"error":"nope","code":"phone_in_use"}`, rec.Body.String())
}

func TestDecodeJSON_RejectsOversizedBody(t *testing.T) {
	big := `{"phone":"` + strings.Repeat("1", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	rec := httptest.NewRecorder()

	var dst struct{ Phone string }
	assert.Error(t, DecodeJSON(rec, req, &dst))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	assert.Equal(t, "192.0.2.10", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(req))
}
