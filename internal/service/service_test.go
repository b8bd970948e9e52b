package service

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

	"github.com/golang-jwt/jwt/v5"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaia-invest/kaia-core/internal/apperrors"
	"github.com/kaia-invest/kaia-core/internal/config"
	"github.com/kaia-invest/kaia-core/internal/httpclient"
	"github.com/kaia-invest/kaia-core/internal/metrics"
	"github.com/kaia-invest/kaia-core/internal/model"
	"github.com/kaia-invest/kaia-core/internal/session"
	"github.com/kaia-invest/kaia-core/internal/storage/memory"
)

type fixture struct {
	sess *session.Store
	svc  *Services
	hits atomic.Int32
}

func newFixture(t *testing.T, policy config.FallbackPolicy, h http.HandlerFunc) *fixture {
	t.Helper()
	f := &fixture{sess: session.New(memory.New(), nil, nil)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := httpclient.New(httpclient.Config{BaseURL: srv.URL, Credentials: f.sess, Timeout: 5 * time.Second})
	require.NoError(t, err)
	f.svc = New(client, f.sess, policy, nil)
	return f
}

func (f *fixture) login(t *testing.T, u model.User) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.sess.SetCredential(ctx, "tok"))
	require.NoError(t, f.sess.SetProfile(ctx, u))
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var m map[string]any
	assert.NoError(t, json.NewDecoder(r.Body).Decode(&m))
	return m
}

func TestProjectListAcceptsEveryEnvelope(t *testing.T) {
	record := `{"id":1,"owner_id":2,"description":"Tilapia farm","profitability_percent":"12.5","minimum_investment":500}`
	bodies := []string{
		"[" + record + "]",
		`{"data":[` + record + `]}`,
		`{"projects":[` + record + `]}`,
	}

	var first []model.Project
	for _, body := range bodies {
		f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/projects/", r.URL.Path)
			w.Write([]byte(body))
		})
		got, err := f.svc.Projects.List(context.Background(), ListOptions{})
		require.NoError(t, err)
		require.Len(t, got, 1, body)
		if first == nil {
			first = got
			continue
		}
		assert.Equal(t, first, got, body)
	}
	assert.Equal(t, int64(1), *first[0].ID)
	assert.Equal(t, 12.5, first[0].ProfitabilityPercent)
	assert.Equal(t, "Tilapia farm", *first[0].Description)
}

func TestProjectCreateFillsOwnerFromProfile(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		body := decodeBody(t, r)
		assert.Equal(t, float64(7), body["owner_id"])
		_, hasID := body["id"]
		assert.False(t, hasID)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":31,"owner_id":7,"description":"Solar"}}`))
	})
	f.login(t, model.User{ID: 7, Role: model.RoleAdmin})

	p, err := f.svc.Projects.Create(context.Background(), model.Project{Description: model.Ptr("Solar"), OwnerID: model.Ptr(int64(99))})
	require.NoError(t, err)
	assert.Equal(t, int64(31), *p.ID)
	assert.Equal(t, int64(7), *p.OwnerID)
}

func TestProjectCreateWithoutProfileKeepsOwner(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		_, hasOwner := body["owner_id"]
		assert.False(t, hasOwner)
		w.WriteHeader(http.StatusNoContent)
	})

	in := model.Project{Description: model.Ptr("Solar")}
	p, err := f.svc.Projects.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, in, p, "empty reply echoes the sent project")
}

func TestProjectCreateWithImage(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		assert.Equal(t, "Hatchery", r.FormValue("description"))
		assert.Equal(t, "7", r.FormValue("owner_id"))
		assert.Equal(t, "1000", r.FormValue("minimum_investment"))
		_, hasStatus := r.MultipartForm.Value["status"]
		assert.False(t, hasStatus)

		file, hdr, err := r.FormFile(ProjectImageField)
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "pond.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		assert.Equal(t, []byte("png"), data)
		w.Write([]byte(`{"id":4,"media_path":"/media/pond.png"}`))
	})
	f.login(t, model.User{ID: 7})

	p, err := f.svc.Projects.CreateWithImage(context.Background(),
		model.Project{Description: model.Ptr("Hatchery"), MinimumInvestment: 1000},
		&Image{Name: "file:///data/cache/pond.png", Content: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, "/media/pond.png", *p.MediaPath)
}

func TestImagePartDefaults(t *testing.T) {
	part := imagePart(&Image{})
	assert.Equal(t, defaultImageName, part.Filename)
	assert.Equal(t, "image/jpeg", part.ContentType)
	assert.Equal(t, ProjectImageField, part.Field)
}

func TestUpdateWithoutIDSendsNothing(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	_, err := f.svc.Projects.Update(ctx, model.Project{Description: model.Ptr("x")})
	assert.ErrorIs(t, err, apperrors.ErrMissingID)
	_, err = f.svc.Investments.Update(ctx, model.Investment{InvestedAmount: 10})
	assert.ErrorIs(t, err, apperrors.ErrMissingID)
	_, err = f.svc.Investors.Update(ctx, model.Investor{Name: "Ana"})
	assert.ErrorIs(t, err, apperrors.ErrMissingID)

	assert.Equal(t, int32(0), f.hits.Load())
}

func TestProjectUpdateAndDelete(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/projects/12", r.URL.Path)
		switch r.Method {
		case http.MethodPut:
			body := decodeBody(t, r)
			assert.Equal(t, "closed", body["status"])
			w.Write([]byte(`{"data":{"id":12,"status":"closed"}}`))
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	ctx := context.Background()

	p, err := f.svc.Projects.Update(ctx, model.Project{ID: model.Ptr(int64(12)), Status: model.Ptr("closed")})
	require.NoError(t, err)
	assert.Equal(t, "closed", p.StatusOr(""))

	assert.NoError(t, f.svc.Projects.Delete(ctx, 12))
}

func TestInvestmentPaths(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.RequestURI())
		mu.Unlock()
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"data":[{"id":1,"project_id":3,"investor_id":4,"invested_amount":"1000","actual_profit":0}]}`))
		case http.MethodPut:
			w.Write([]byte(`{"data":{"id":5,"invested_amount":200,"actual_profit":30}}`))
		default:
			w.WriteHeader(http.StatusOK)
		}
	})
	ctx := context.Background()

	list, err := f.svc.Investments.List(ctx, ListOptions{Limit: 10, Offset: 20})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1000.0, list[0].InvestedAmount)

	_, err = f.svc.Investments.ListByProject(ctx, 3, ListOptions{})
	require.NoError(t, err)
	_, err = f.svc.Investments.ListByInvestor(ctx, 4, ListOptions{})
	require.NoError(t, err)

	inv, err := f.svc.Investments.Update(ctx, model.Investment{ID: 5, InvestedAmount: 200})
	require.NoError(t, err)
	assert.True(t, inv.Completed())

	require.NoError(t, f.svc.Investments.Delete(ctx, 5))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"GET /investments/?limit=10&offset=20",
		"GET /investments/project/3",
		"GET /investments/investor/4",
		"PUT /investments/5",
		"DELETE /investments/5",
	}, paths)
}

func TestInvestorCRUD(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /investors":
			w.Write([]byte(`[{"id":1,"user_id":2,"name":"Ana","nuit":"123"}]`))
		case "GET /investors/1":
			w.Write([]byte(`{"id":1,"name":"Ana"}`))
		case "POST /investors":
			body := decodeBody(t, r)
			_, hasCreated := body["created_at"]
			assert.False(t, hasCreated)
			w.Write([]byte(`{"data":{"id":8,"name":"Rui"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"message":"Investor not found"}`))
		}
	})
	ctx := context.Background()

	list, err := f.svc.Investors.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "123", list[0].NUIT)

	one, err := f.svc.Investors.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Ana", one.Name)

	created, err := f.svc.Investors.Create(ctx, model.Investor{Name: "Rui", CreatedAt: model.Ptr(time.Now())})
	require.NoError(t, err)
	assert.Equal(t, int64(8), *created.ID)

	_, err = f.svc.Investors.Get(ctx, 404)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "Investor not found")
}

func TestLoginStoresResponseProfile(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/u/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		body := decodeBody(t, r)
		assert.Equal(t, "admin@kaia.local", body["email"])
		w.Write([]byte(`{"token":"abc","user":{"id":1,"username":"admin","email":"admin@kaia.local","role":"admin"}}`))
	})
	ctx := context.Background()

	u, err := f.svc.Auth.Login(ctx, model.AuthRequest{Email: "  admin@kaia.local ", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.True(t, u.IsAdmin())
	assert.Equal(t, session.LandingAdminDashboard, session.Landing(u.Role))

	tok, ok := f.sess.GetCredential(ctx)
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)
}

func TestLoginDecodesTokenWhenUserMissing(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id": 9, "name": "ana", "email": "ana@kaia.local", "role": "user",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"token": tok}})
	})

	u, err := f.svc.Auth.Login(context.Background(), model.AuthRequest{Email: "ana@kaia.local", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), u.ID)
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, session.LandingInvestorProjects, session.Landing(u.Role))
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	})
	_, err := f.svc.Auth.Login(ctx, model.AuthRequest{Email: "a", Password: "b"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	assert.Contains(t, err.Error(), "Invalid credentials")
	assert.Equal(t, session.Anonymous, f.sess.State(ctx))

	f = newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	_, err = f.svc.Auth.Login(ctx, model.AuthRequest{Email: "a", Password: "b"})
	assert.Contains(t, err.Error(), "Failed to authenticate")

	f = newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":{"id":1}}`))
	})
	_, err = f.svc.Auth.Login(ctx, model.AuthRequest{Email: "a", Password: "b"})
	assert.ErrorIs(t, err, apperrors.ErrNoCredential)
	assert.Equal(t, session.Anonymous, f.sess.State(ctx))
}

func TestSignupIsAnonymousAndLogoutClears(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/u/signup", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		body := decodeBody(t, r)
		assert.Equal(t, "ana", body["username"])
		_, hasStatus := body["status"]
		assert.False(t, hasStatus)
		w.WriteHeader(http.StatusCreated)
	})
	ctx := context.Background()
	f.login(t, model.User{ID: 1})

	require.NoError(t, f.svc.Auth.Signup(ctx, model.SignupRequest{Username: " ana ", Email: "ana@kaia.local", Password: "pw"}))

	require.NoError(t, f.svc.Auth.Logout(ctx))
	assert.Equal(t, session.Anonymous, f.sess.State(ctx))
	_, err := f.sess.GetProfile(ctx)
	assert.ErrorIs(t, err, apperrors.ErrProfileNotFound)
}

func TestAdminProfileRequiresCredential(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		if r.Method == http.MethodPut {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.Write([]byte(`{"data":{"name":"Admin","phone_number":"+258 84 000 0000"}}`))
	})
	ctx := context.Background()

	_, err := f.svc.AdminProfile.Get(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNoCredential)
	_, err = f.svc.AdminProfile.Update(ctx, model.AdminProfile{Name: "x"})
	assert.ErrorIs(t, err, apperrors.ErrNoCredential)
	assert.Equal(t, int32(0), f.hits.Load())

	f.login(t, model.User{ID: 1, Role: model.RoleAdmin})
	p, err := f.svc.AdminProfile.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "+258 84 000 0000", p.PhoneNumber)

	in := model.AdminProfile{Name: "New name"}
	out, err := f.svc.AdminProfile.Update(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestAdminSettingsLocalFallback(t *testing.T) {
	f := newFixture(t, config.FallbackLocal, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ctx := context.Background()

	got, err := f.svc.AdminSettings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, SessionlessSettings, got)
	assert.Equal(t, int32(0), f.hits.Load())

	f.login(t, model.User{ID: 1})
	got, err = f.svc.AdminSettings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, OfflineSettings, got)

	want := model.AdminSettings{Theme: "dark", TwoFactorEnabled: true}
	saved, err := f.svc.AdminSettings.Save(ctx, want)
	require.NoError(t, err)
	assert.Equal(t, want, saved)

	n, err := promtest.GatherAndCount(metrics.Registry, "kaia_client_fallbacks_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 2)
}

func TestAdminSettingsStrict(t *testing.T) {
	f := newFixture(t, config.FallbackStrict, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"settings store down"}`))
	})
	ctx := context.Background()
	assert.Equal(t, config.FallbackStrict, f.svc.AdminSettings.Policy())

	_, err := f.svc.AdminSettings.Load(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNoCredential)

	f.login(t, model.User{ID: 1})
	_, err = f.svc.AdminSettings.Save(ctx, model.AdminSettings{Theme: "dark"})
	assert.Equal(t, http.StatusInternalServerError, apperrors.StatusCode(err))
	assert.Contains(t, err.Error(), "settings store down")
}

func TestAdminSettingsRoundTrip(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			body := decodeBody(t, r)
			assert.Equal(t, "dark", body["theme"])
			assert.Equal(t, true, body["twoFactorEnabled"])
			w.Write([]byte(`{"data":{"pushNotifications":"true","emailNotifications":true,"theme":"dark","twoFactorEnabled":true}}`))
			return
		}
		w.Write([]byte(`{"pushNotifications":true,"emailNotifications":false,"theme":"dark","twoFactorEnabled":false}`))
	})
	f.login(t, model.User{ID: 1})
	ctx := context.Background()

	got, err := f.svc.AdminSettings.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.AdminSettings{PushNotifications: true, Theme: "dark"}, got)

	saved, err := f.svc.AdminSettings.Save(ctx, model.AdminSettings{Theme: "dark", TwoFactorEnabled: true})
	require.NoError(t, err)
	assert.False(t, saved.PushNotifications, "only a literal true enables a flag")
	assert.True(t, saved.EmailNotifications)
}

func TestAdminStats(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/stats", r.URL.Path)
		w.Write([]byte(`{"stats":[{"title":"Total Investors","value":"3","icon":"groups"}]}`))
	})
	f.login(t, model.User{ID: 1})

	stats, err := f.svc.AdminStats.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.AdminStat{{Title: "Total Investors", Value: "3", Icon: "groups"}}, stats)
}

func TestPaymentCreate(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, float64(0), body["id"])
		assert.Equal(t, float64(1500), body["total_amount"])
		assert.Equal(t, body["created_at"], body["updated_at"])
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":11,"payer_from_id":1,"payer_to_id":2,"paid_amount":750}}`))
	})

	p, err := f.svc.Payments.Create(context.Background(), model.PaymentRequest{
		PayerFromID: 1, PayerToID: 2, PaidAmount: 750, TotalAmount: 1500,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), p.ID)
	assert.Equal(t, 750.0, p.PaidAmount)
}

func TestTransactions(t *testing.T) {
	f := newFixture(t, "", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method + " " + r.URL.Path {
		case "GET /transactions":
			w.Write([]byte(`[{"id":1,"payment_id":1,"gateway_ref":123456,"transaction_id":"MP-1","amount":"10.5"}]`))
		case "GET /transactions/1":
			w.Write([]byte(`{"data":{"id":1,"payment_id":2}}`))
		case "POST /transactions":
			var body map[string]any
			dec := json.NewDecoder(r.Body)
			dec.UseNumber()
			assert.NoError(t, dec.Decode(&body))
			assert.Equal(t, json.Number("98765"), body["gateway_ref"])
			assert.Equal(t, "MP-2", body["transaction_id"])
			w.Write([]byte(`{"id":2,"payment_id":1,"gateway_ref":"98765","transaction_id":"MP-2"}`))
		}
	})
	ctx := context.Background()

	list, err := f.svc.Transactions.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "123456", list[0].GatewayRef)
	assert.Equal(t, 10.5, list[0].Amount)

	one, err := f.svc.Transactions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), one.PaymentID)

	created, err := f.svc.Transactions.Create(ctx, model.Transaction{PaymentID: 1, GatewayRef: "98765", TransactionID: "MP-2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), *created.ID)
}

func TestNetworkFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client, err := httpclient.New(httpclient.Config{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)
	svc := New(client, session.New(memory.New(), nil, nil), config.FallbackLocal, nil)

	_, err = svc.Transactions.List(context.Background(), ListOptions{})
	assert.True(t, apperrors.IsNetwork(err))
}
