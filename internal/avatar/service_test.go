package avatar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukrch/platform/internal/config"
	"github.com/ukrch/platform/internal/httputil"
	"github.com/ukrch/platform/internal/identity"
	"github.com/ukrch/platform/internal/profile"
)

type fakeProfiles struct {
	rows map[uuid.UUID]*profile.Profile
}

func (f *fakeProfiles) GetByAccountID(_ context.Context, accountID uuid.UUID) (*profile.Profile, error) {
	p, ok := f.rows[accountID]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfiles) SetAvatar(_ context.Context, id, key string) error {
	for _, p := range f.rows {
		if p.ID == id {
			p.AvatarKey = key
			return nil
		}
	}
	return profile.ErrNotFound
}

func storageConfig() config.StorageConfig {
	return config.StorageConfig{
		Bucket:          "ukrch-avatars",
		Region:          "eu-central-2",
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		PresignTTL:      15 * time.Minute,
	}
}

func newTestService(t *testing.T) (*Service, *fakeProfiles, uuid.UUID) {
	t.Helper()
	accountID := uuid.New()
	profiles := &fakeProfiles{rows: map[uuid.UUID]*profile.Profile{
		accountID: {ID: "7", AccountID: accountID},
	}}
	svc := NewService(storageConfig(), profiles)
	svc.now = func() time.Time { return time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC) }
	return svc, profiles, accountID
}

func TestOwnedBy(t *testing.T) {
	accountID := uuid.New()

	assert.True(t, OwnedBy(KeyFor(accountID), accountID))
	assert.False(t, OwnedBy(KeyFor(uuid.New()), accountID))
	assert.False(t, OwnedBy("avatars/"+accountID.String()+"/../other", accountID))
	assert.False(t, OwnedBy("avatars/"+accountID.String()+"/", accountID))
	assert.False(t, OwnedBy("", accountID))
}

func TestUploadURL_PresignsPut(t *testing.T) {
	svc, _, accountID := newTestService(t)

	upload, err := svc.UploadURL(context.Background(), accountID)
	require.NoError(t, err)

	assert.True(t, OwnedBy(upload.Key, accountID))
	assert.Equal(t, http.MethodPut, upload.Method)
	assert.True(t, strings.HasPrefix(upload.URL, "http://127.0.0.1:9000/ukrch-avatars/"+upload.Key), upload.URL)
	assert.Contains(t, upload.URL, "X-Amz-Signature=")
	assert.Contains(t, upload.URL, "X-Amz-Expires=900")
	assert.Equal(t, time.Date(2026, 10, 14, 9, 15, 0, 0, time.UTC), upload.ExpiresAt)
}

func TestUploadURL_PresignFailure(t *testing.T) {
	orig := presignPutObject
	t.Cleanup(func() { presignPutObject = orig })
	presignPutObject = func(*s3.PresignClient, context.Context, *s3.PutObjectInput, ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("signer down")
	}

	svc, _, accountID := newTestService(t)
	_, err := svc.UploadURL(context.Background(), accountID)
	assert.ErrorContains(t, err, "signer down")
}

func TestSetAvatarAndDownload(t *testing.T) {
	svc, profiles, accountID := newTestService(t)
	ctx := context.Background()

	_, err := svc.DownloadURL(ctx, accountID)
	assert.ErrorIs(t, err, ErrNoAvatar)

	assert.ErrorIs(t, svc.SetAvatar(ctx, accountID, KeyFor(uuid.New())), ErrInvalidKey)

	key := KeyFor(accountID)
	require.NoError(t, svc.SetAvatar(ctx, accountID, key))
	assert.Equal(t, key, profiles.rows[accountID].AvatarKey)

	var captured string
	orig := presignGetObject
	t.Cleanup(func() { presignGetObject = orig })
	presignGetObject = func(_ *s3.PresignClient, _ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		captured = *in.Key
		return &v4.PresignedHTTPRequest{URL: "https://cdn.example/" + *in.Key, Method: http.MethodGet}, nil
	}

	url, err := svc.DownloadURL(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, key, captured)
	assert.Equal(t, "https://cdn.example/"+key, url)
}

func TestService_NotConfigured(t *testing.T) {
	svc := NewService(config.StorageConfig{}, &fakeProfiles{})
	ctx := context.Background()
	id := uuid.New()

	_, err := svc.UploadURL(ctx, id)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, svc.SetAvatar(ctx, id, KeyFor(id)), ErrNotConfigured)
	_, err = svc.DownloadURL(ctx, id)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestHandler_Errors(t *testing.T) {
	svc, _, accountID := newTestService(t)
	h := NewHandler(svc)

	serve := func(handler http.HandlerFunc, method, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/account/avatar", strings.NewReader(body))
		req = req.WithContext(identity.ContextWithAccount(req.Context(), accountID, "member@example.ch"))
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec
	}
	code := func(rec *httptest.ResponseRecorder) string {
		var body httputil.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body.Code
	}

	rec := serve(h.DownloadURL, http.MethodGet, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, httputil.CodeNoAvatar, code(rec))

	rec = serve(h.SetAvatar, http.MethodPut, `{"key":"avatars/someone-else/x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeInvalidAvatarKey, code(rec))

	rec = serve(h.UploadURL, http.MethodPost, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var upload UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &upload))
	assert.True(t, OwnedBy(upload.Upload.Key, accountID))

	unconfigured := NewHandler(NewService(config.StorageConfig{}, &fakeProfiles{}))
	rec = serve(unconfigured.UploadURL, http.MethodPost, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, httputil.CodeStorageUnavailable, code(rec))
}
