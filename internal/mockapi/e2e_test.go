package mockapi_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kaia-invest/kaia-core/internal/aggregate"
	"github.com/kaia-invest/kaia-core/internal/config"
	"github.com/kaia-invest/kaia-core/internal/httpclient"
	"github.com/kaia-invest/kaia-core/internal/mockapi"
	"github.com/kaia-invest/kaia-core/internal/model"
	"github.com/kaia-invest/kaia-core/internal/service"
	"github.com/kaia-invest/kaia-core/internal/session"
	"github.com/kaia-invest/kaia-core/internal/storage/memory"
)

func newClient(t *testing.T) (*httptest.Server, *session.Store, *service.Services) {
	t.Helper()
	api, err := mockapi.New(mockapi.Config{JWTSecret: "e2e", SampleData: true, BcryptCost: bcrypt.MinCost})
	require.NoError(t, err)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	sess := session.New(memory.New(), nil, nil)
	client, err := httpclient.New(httpclient.Config{BaseURL: srv.URL, Credentials: sess, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return srv, sess, service.New(client, sess, config.FallbackStrict, nil)
}

func TestClientAgainstMockAPI(t *testing.T) {
	ctx := context.Background()
	srv, sess, svc := newClient(t)

	_, err := svc.Auth.Login(ctx, model.AuthRequest{Email: mockapi.AdminEmail, Password: "wrong"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid email or password")
	assert.Equal(t, session.Anonymous, sess.State(ctx))

	user, err := svc.Auth.Login(ctx, model.AuthRequest{Email: mockapi.AdminEmail, Password: mockapi.AdminPassword})
	require.NoError(t, err)
	assert.Equal(t, session.Authenticated, sess.State(ctx))
	assert.Equal(t, session.LandingAdminDashboard, session.Landing(user.Role))

	projects, err := svc.Projects.List(ctx, service.ListOptions{})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Len(t, aggregate.FilterProjects(projects, "open"), 1)

	created, err := svc.Projects.CreateWithImage(ctx, model.Project{
		Description:          model.Ptr("Feed mill"),
		ProfitabilityPercent: 7.5,
		MinimumInvestment:    1000,
		Status:               model.Ptr("open"),
	}, &service.Image{Name: "mill.png", Content: []byte("\x89PNG\r\n\x1a\nmill")})
	require.NoError(t, err)
	require.NotNil(t, created.ID)
	assert.Equal(t, int64(3), *created.ID)
	require.NotNil(t, created.OwnerID)
	assert.Equal(t, user.ID, *created.OwnerID)
	require.NotNil(t, created.MediaPath)
	assert.True(t, strings.HasSuffix(*created.MediaPath, "mill.png"))

	resp, err := http.Get(srv.URL + *created.MediaPath)
	require.NoError(t, err)
	media, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "\x89PNG\r\n\x1a\nmill", string(media))

	investments, err := svc.Investments.ListByInvestor(ctx, 1, service.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, aggregate.InvestmentSummary{Count: 1, TotalInvested: 5000, TotalProfit: 1250},
		aggregate.SummarizeInvestments(investments, aggregate.Active))

	investors, err := svc.Investors.List(ctx, service.ListOptions{})
	require.NoError(t, err)
	require.Len(t, investors, 1)
	assert.Equal(t, "400000001", investors[0].NUIT)

	payment, err := svc.Payments.Create(ctx, model.PaymentRequest{PayerFromID: 2, PayerToID: 1, PaidAmount: 250, TotalAmount: 250})
	require.NoError(t, err)
	assert.Equal(t, int64(2), payment.ID)
	assert.Equal(t, 250.0, payment.PaidAmount)

	txs, err := svc.Transactions.List(ctx, service.ListOptions{})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "884422", txs[0].GatewayRef)
	assert.Equal(t, aggregate.TxApproved, aggregate.TransactionStatus(txs[0]))

	settings, err := svc.AdminSettings.Save(ctx, model.AdminSettings{Theme: "dark", TwoFactorEnabled: true})
	require.NoError(t, err)
	loaded, err := svc.AdminSettings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, settings, loaded)
	assert.Equal(t, "dark", loaded.Theme)

	stats, err := svc.AdminStats.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 4)
	assert.Equal(t, aggregate.StatActiveProjects, stats[3].Title)
	assert.Equal(t, "2", stats[3].Value)

	require.NoError(t, svc.Auth.Logout(ctx))
	assert.Equal(t, session.Anonymous, sess.State(ctx))
	_, err = svc.AdminStats.Stats(ctx)
	assert.Error(t, err)
}

func TestSignupThenLoginLandsOnProjects(t *testing.T) {
	ctx := context.Background()
	_, sess, svc := newClient(t)

	require.NoError(t, svc.Auth.Signup(ctx, model.SignupRequest{Username: "rui", Email: "rui@kaia.local", Password: "pw123456"}))
	user, err := svc.Auth.Login(ctx, model.AuthRequest{Email: "rui@kaia.local", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, session.LandingInvestorProjects, session.Landing(user.Role))

	profile, err := sess.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "rui", profile.Username)

	_, err = svc.AdminProfile.Get(ctx)
	assert.Error(t, err)
}
