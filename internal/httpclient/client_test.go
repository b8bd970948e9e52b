package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaia-invest/kaia-core/internal/apperrors"
	"github.com/kaia-invest/kaia-core/internal/logging"
	"github.com/kaia-invest/kaia-core/internal/model"
)

type staticCreds string

func (s staticCreds) GetCredential(context.Context) (string, bool) {
	return string(s), s != ""
}

func newTestClient(t *testing.T, h http.HandlerFunc, creds CredentialSource) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Config{BaseURL: srv.URL, Credentials: creds, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url"})
	assert.Error(t, err)
	_, err = New(Config{BaseURL: ""})
	assert.Error(t, err)

	c, err := New(Config{BaseURL: "https://kaia.loophole.site/"})
	require.NoError(t, err)
	assert.Equal(t, "https://kaia.loophole.site", c.BaseURL())
}

func TestAuthInjection(t *testing.T) {
	var gotAuth, gotReqID atomic.Value
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		gotReqID.Store(r.Header.Get(RequestIDHeader))
		w.Write([]byte(`[]`))
	}, staticCreds("tok"))

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/projects/"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", gotAuth.Load())
	assert.NotEmpty(t, gotReqID.Load())

	_, err = c.Do(context.Background(), Request{Method: http.MethodPost, Path: "/u/login", Anonymous: true, Body: model.Record{}})
	require.NoError(t, err)
	assert.Equal(t, "", gotAuth.Load())

	ctx := logging.ContextWithRequestID(context.Background(), "req-42")
	_, err = c.Do(ctx, Request{Path: "/projects/"})
	require.NoError(t, err)
	assert.Equal(t, "req-42", gotReqID.Load())
}

func TestMissingCredentialDoesNotBlockOrdinaryRequests(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"projects":[]}`))
	}, staticCreds(""))

	_, err := c.Do(context.Background(), Request{Path: "/projects/"})
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Path: "/admin/profile", RequireAuth: true})
	assert.ErrorIs(t, err, apperrors.ErrNoCredential)
	assert.True(t, apperrors.IsUnauthorized(err))
	assert.Equal(t, int32(1), hits.Load(), "auth-required call must not reach the network")
}

func TestStatusErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/with-message":
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"Email already used"}`))
		case "/unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`<html>not found</html>`))
		}
	}, nil)

	_, err := c.Do(context.Background(), Request{Path: "/with-message", Resource: "auth", Fallback: "Signup failed"})
	var se *apperrors.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Email already used", se.Message)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)

	_, err = c.Do(context.Background(), Request{Path: "/unauthorized", Fallback: "Failed to load profile"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "Failed to load profile", se.Message)

	_, err = c.Do(context.Background(), Request{Path: "/missing"})
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, apperrors.StatusCode(err))
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := New(Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Path: "/projects/"})
	require.Error(t, err)
	assert.True(t, apperrors.IsNetwork(err))
	var ne *apperrors.NetworkError
	assert.True(t, errors.As(err, &ne))
}

func TestOversizedResponseIsRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"projects":[{"id":1},{"id":2}]}`)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second, MaxResponseBytes: 16})
	require.NoError(t, err)
	_, err = c.Do(context.Background(), Request{Path: "/projects/"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseTooLarge)

	exact, err := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second, MaxResponseBytes: 32})
	require.NoError(t, err)
	_, err = exact.Do(context.Background(), Request{Path: "/projects/"})
	assert.NoError(t, err)
}

func TestJSONAndQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "x", body["name"])
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":3,"name":"x"}}`))
	}, nil)

	resp, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "investors",
		Query:  map[string][]string{"limit": {"10"}},
		Body:   model.Record{"name": "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, Data, resp.Value().Kind)
	assert.Equal(t, json.Number("3"), resp.Value().Record()["id"])
}

func TestMultipartBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "Solar", r.FormValue("description"))
		assert.Equal(t, "18.5", r.FormValue("profitability_percent"))
		assert.Equal(t, "3", r.FormValue("owner_id"))
		_, present := r.MultipartForm.Value["risk_level"]
		assert.False(t, present, "nil fields are skipped")

		f, hdr, err := r.FormFile("image")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "photo.jpg", hdr.Filename)
		assert.Equal(t, "image/jpeg", hdr.Header.Get("Content-Type"))
		assert.Equal(t, []byte{0xff, 0xd8}, data)
		w.Write([]byte(`{"id":9}`))
	}, nil)

	_, err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/projects/",
		Multipart: &Multipart{
			Fields: model.Record{
				"description":           "Solar",
				"profitability_percent": 18.5,
				"owner_id":              int64(3),
				"risk_level":            nil,
			},
			Files: []FilePart{{Field: "image", Filename: "/tmp/photo.jpg", ContentType: "image/jpeg", Content: []byte{0xff, 0xd8}}},
		},
	})
	require.NoError(t, err)
}

func TestRateLimiterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, RateLimit: 0.001, Burst: 1})
	require.NoError(t, err)

	_, err = c.Do(context.Background(), Request{Path: "/"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Do(ctx, Request{Path: "/"})
	assert.True(t, apperrors.IsNetwork(err))
}

func TestAcceptExtraStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}, nil)

	resp, err := c.Do(context.Background(), Request{Path: "/", Accept: []int{http.StatusNotModified}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
}
