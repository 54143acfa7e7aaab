package sms

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukrch/platform/internal/config"
	"github.com/ukrch/platform/internal/logging"
)

func newTestClient(url string) *TwilioClient {
	c := NewTwilioClient("AC123", "secret", "+41445550000", url)
	c.backoff = time.Millisecond
	return c
}

func TestTwilioClient_Send(t *testing.T) {
	var form url.Values
	var user, pass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		user, pass, _ = r.BasicAuth()
		assert.NoError(t, r.ParseForm())
		form = r.PostForm
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"sid":"SM1","status":"queued"}`)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL+"/").Send(context.Background(), "+41791234567", "Your verification code is 042137.")
	require.NoError(t, err)

	assert.Equal(t, "AC123", user)
	assert.Equal(t, "secret", pass)
	assert.Equal(t, "+41791234567", form.Get("To"))
	assert.Equal(t, "+41445550000", form.Get("From"))
	assert.Equal(t, "Your verification code is 042137.", form.Get("Body"))
}

func TestTwilioClient_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":21211,"message":"Invalid 'To' Phone Number"}`)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Send(context.Background(), "+41", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "code=21211")
	assert.Equal(t, int32(1), calls.Load())
}

func TestTwilioClient_ServerErrorRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	require.NoError(t, newTestClient(srv.URL).Send(context.Background(), "+41791234567", "x"))
	assert.Equal(t, int32(3), calls.Load())
}

func TestTwilioClient_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Send(context.Background(), "+41791234567", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=500")
	assert.Equal(t, int32(maxRetries+1), calls.Load())
}

func TestNew_SelectsSender(t *testing.T) {
	logger := logging.NewLoggerWithWriter(true, io.Discard)

	configured := config.SMSConfig{AccountSID: "AC1", AuthToken: "t", From: "+41445550000"}
	assert.IsType(t, &TwilioClient{}, New(configured, false, logger))

	assert.IsType(t, &LogSender{}, New(config.SMSConfig{DevFallback: true}, true, logger))

	s := New(config.SMSConfig{DevFallback: false}, true, logger)
	assert.ErrorIs(t, s.Send(context.Background(), "+41791234567", "x"), ErrNotConfigured)
	assert.ErrorIs(t, New(config.SMSConfig{}, false, logger).Send(context.Background(), "+4179", "x"), ErrNotConfigured)
}
