package app

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kaia-invest/kaia-core/internal/config"
	"github.com/kaia-invest/kaia-core/internal/logging"
	"github.com/kaia-invest/kaia-core/internal/mockapi"
	"github.com/kaia-invest/kaia-core/internal/model"
	"github.com/kaia-invest/kaia-core/internal/service"
	"github.com/kaia-invest/kaia-core/internal/session"
	"github.com/kaia-invest/kaia-core/internal/storage/file"
	"github.com/kaia-invest/kaia-core/internal/storage/memory"
)

func TestOpenStorageBackends(t *testing.T) {
	ctx := context.Background()

	kv, err := OpenStorage(ctx, config.StorageConfig{})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, kv)

	path := filepath.Join(t.TempDir(), "nested", "session.json")
	kv, err = OpenStorage(ctx, config.StorageConfig{Backend: config.StorageFile, Path: path})
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, kv)

	_, err = OpenStorage(ctx, config.StorageConfig{Backend: config.StorageFile})
	assert.Error(t, err)

	_, err = OpenStorage(ctx, config.StorageConfig{Backend: "etcd"})
	assert.EqualError(t, err, `unknown storage backend "etcd"`)
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	cfg := config.Default()
	cfg.API.BaseURL = "not a url"
	_, err := New(context.Background(), cfg, Options{KV: memory.New(), Logger: logging.Discard()})
	assert.Error(t, err)
}

func TestLifecycleAgainstMockAPI(t *testing.T) {
	ctx := context.Background()
	api, err := mockapi.New(mockapi.Config{JWTSecret: "app", SampleData: true, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	srv := httptest.NewServer(api)
	defer srv.Close()

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	cfg.Storage = config.StorageConfig{Backend: config.StorageFile, Path: filepath.Join(t.TempDir(), "session.json")}

	a, err := New(ctx, cfg, Options{Logger: logging.Discard()})
	require.NoError(t, err)
	assert.Equal(t, session.Anonymous, a.Start(ctx))

	u, err := a.Auth.Login(ctx, model.AuthRequest{Email: mockapi.AdminEmail, Password: mockapi.AdminPassword})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin())
	require.NoError(t, a.Stop(ctx))

	_, err = os.Stat(cfg.Storage.Path)
	require.NoError(t, err)

	restarted, err := New(ctx, cfg, Options{Logger: logging.Discard()})
	require.NoError(t, err)
	defer restarted.Stop(ctx)
	assert.Equal(t, session.Authenticated, restarted.Start(ctx))

	profile, err := restarted.Session.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, profile.ID)

	projects, err := restarted.Projects.List(ctx, service.ListOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestSuppliedKVIsNotClosed(t *testing.T) {
	kv := memory.New()
	a, err := New(context.Background(), config.Default(), Options{KV: kv, Logger: logging.Discard()})
	require.NoError(t, err)
	require.NoError(t, a.Stop(context.Background()))
	require.NoError(t, kv.Set(context.Background(), "k", "v"))
}
