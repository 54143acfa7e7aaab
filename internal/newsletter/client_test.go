package newsletter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method, path, auth string
	body               map[string]any
}

// fakeProviderAPI is an in-memory audiences/contacts API
type fakeProviderAPI struct {
	mu        sync.Mutex
	requests  []recordedRequest
	audiences []Audience
	contacts  map[string]Contact
}

func newFakeProviderAPI(t *testing.T) (*fakeProviderAPI, *httptest.Server) {
	t.Helper()
	api := &fakeProviderAPI{contacts: map[string]Contact{}}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

func (a *fakeProviderAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var body map[string]any
	raw, _ := io.ReadAll(r.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}
	a.requests = append(a.requests, recordedRequest{r.Method, r.URL.Path, r.Header.Get("Authorization"), body})

	const contacts = "/audiences/aud_1/contacts"
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/audiences":
		_ = json.NewEncoder(w).Encode(map[string]any{"data": a.audiences})
	case r.Method == http.MethodPost && r.URL.Path == "/audiences":
		created := Audience{ID: "aud_1", Name: body["name"].(string)}
		a.audiences = append(a.audiences, created)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(created)
	case r.Method == http.MethodPost && r.URL.Path == contacts:
		email := body["email"].(string)
		if _, ok := a.contacts[email]; ok {
			w.WriteHeader(http.StatusConflict)
			return
		}
		a.contacts[email] = Contact{ID: "c_" + email, Email: email, Unsubscribed: body["unsubscribed"].(bool)}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"c"}`)
	case len(r.URL.Path) > len(contacts) && r.URL.Path[:len(contacts)+1] == contacts+"/":
		email := r.URL.Path[len(contacts)+1:]
		c, ok := a.contacts[email]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPatch:
			c.Unsubscribed = body["unsubscribed"].(bool)
			a.contacts[email] = c
		case http.MethodDelete:
			delete(a.contacts, email)
		}
		_, _ = io.WriteString(w, `{}`)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestService_SubscribeCreatesAudienceOnce(t *testing.T) {
	api, srv := newFakeProviderAPI(t)
	svc := NewService(NewClient("re_key", srv.URL), "Community Newsletter")
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, " Olena@Example.CH "))
	require.NoError(t, svc.Subscribe(ctx, "taras@example.ch"))

	assert.Equal(t, Contact{ID: "c_olena@example.ch", Email: "olena@example.ch"}, api.contacts["olena@example.ch"])
	assert.Len(t, api.audiences, 1)

	var audienceCalls int
	for _, req := range api.requests {
		assert.Equal(t, "Bearer re_key", req.auth)
		if req.path == "/audiences" {
			audienceCalls++
		}
	}
	assert.Equal(t, 2, audienceCalls, "one list and one create, then cached")
}

func TestService_ReusesExistingAudience(t *testing.T) {
	api, srv := newFakeProviderAPI(t)
	api.audiences = []Audience{{ID: "aud_other", Name: "Other"}, {ID: "aud_1", Name: "Community Newsletter"}}
	svc := NewService(NewClient("re_key", srv.URL), "Community Newsletter")

	id, err := svc.EnsureAudience(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "aud_1", id)
	assert.Len(t, api.audiences, 2)
}

func TestService_ResubscribeAndUnsubscribe(t *testing.T) {
	api, srv := newFakeProviderAPI(t)
	svc := NewService(NewClient("re_key", srv.URL), "Community Newsletter")
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "a@example.ch"))
	require.NoError(t, svc.Unsubscribe(ctx, "a@example.ch"))
	assert.True(t, api.contacts["a@example.ch"].Unsubscribed)

	// Existing contact is updated instead of duplicated
	require.NoError(t, svc.Subscribe(ctx, "a@example.ch"))
	assert.False(t, api.contacts["a@example.ch"].Unsubscribed)

	assert.NoError(t, svc.Unsubscribe(ctx, "ghost@example.ch"))
}

func TestService_Remove(t *testing.T) {
	api, srv := newFakeProviderAPI(t)
	svc := NewService(NewClient("re_key", srv.URL), "Community Newsletter")
	ctx := context.Background()

	require.NoError(t, svc.Subscribe(ctx, "bye@example.ch"))
	require.NoError(t, svc.Remove(ctx, "bye@example.ch"))
	assert.NotContains(t, api.contacts, "bye@example.ch")

	assert.NoError(t, svc.Remove(ctx, "bye@example.ch"))
}

func TestClient_NotConfigured(t *testing.T) {
	svc := NewService(NewClient("", "http://127.0.0.1:1"), "x")
	assert.ErrorIs(t, svc.Subscribe(context.Background(), "a@example.ch"), ErrNotConfigured)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"data":[{"id":"aud_9","name":"N"}]}`)
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL)
	c.backoff = time.Millisecond

	audiences, err := c.ListAudiences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Audience{{ID: "aud_9", Name: "N"}}, audiences)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ClientErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"message":"invalid email"}`)
	}))
	defer srv.Close()

	err := NewClient("k", srv.URL).CreateContact(context.Background(), "aud", Contact{Email: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=422")
}
