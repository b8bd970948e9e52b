// Package mockapi is an in-memory stand-in for the remote investment API,
// used for local development and end-to-end tests of the client core.
//
// It reproduces the inconsistencies of the real API on purpose: the project
// list is wrapped as {"projects": [...]}, investments and most single
// records as {"data": ...}, investor and transaction lists are bare arrays.
// Errors are {"message": "..."}.
package mockapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/kaia-invest/kaia-core/internal/logging"
	"github.com/kaia-invest/kaia-core/internal/model"
)

// Seeded administrator.
const (
	AdminEmail    = "admin@kaia.local"
	AdminPassword = "admin123"
)

// Config configures a Server.
type Config struct {
	// JWTSecret signs issued tokens. Required.
	JWTSecret string
	TokenTTL  time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost.
	BcryptCost int
	// RateLimit caps requests per second per client; zero disables it.
	RateLimit float64
	Burst     int
	// SampleData seeds projects, investors, investments and transactions.
	SampleData bool
	Logger     *logging.Logger
	// Now overrides the clock.
	Now func() time.Time
}

type account struct {
	user model.User
	hash []byte
}

// Server holds the in-memory API state. It is safe for concurrent use.
type Server struct {
	secret   []byte
	tokenTTL time.Duration
	cost     int
	log      *logging.Logger
	now      func() time.Time
	router   *mux.Router

	mu           sync.Mutex
	accounts     map[int64]*account
	byEmail      map[string]int64
	nextUser     int64
	projects     *table
	investments  *table
	investors    *table
	payments     *table
	transactions *table
	media        map[string][]byte
	profile      model.AdminProfile
	settings     model.AdminSettings
}

// New creates a server seeded with the administrator account.
func New(cfg Config) (*Server, error) {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		return nil, fmt.Errorf("mockapi: jwt secret is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		secret:       []byte(cfg.JWTSecret),
		tokenTTL:     cfg.TokenTTL,
		cost:         cfg.BcryptCost,
		log:          cfg.Logger,
		now:          cfg.Now,
		accounts:     make(map[int64]*account),
		byEmail:      make(map[string]int64),
		projects:     newTable(),
		investments:  newTable(),
		investors:    newTable(),
		payments:     newTable(),
		transactions: newTable(),
		media:        make(map[string][]byte),
		profile:      model.AdminProfile{Name: "Administrator"},
		settings:     model.AdminSettings{PushNotifications: true, EmailNotifications: true, Theme: "light"},
	}

	if _, err := s.createAccount("admin", AdminEmail, AdminPassword, model.RoleAdmin, "active"); err != nil {
		return nil, fmt.Errorf("mockapi: seed admin: %w", err)
	}
	if cfg.SampleData {
		if err := s.seedSampleData(); err != nil {
			return nil, fmt.Errorf("mockapi: seed sample data: %w", err)
		}
	}

	s.router = s.routes(cfg)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(cfg Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware(s.log))
	if cfg.RateLimit > 0 {
		r.Use(newRateLimiter(cfg.RateLimit, cfg.Burst, s.now).middleware)
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, "Route not found", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/media/{name}", s.handleMedia).Methods(http.MethodGet)

	r.HandleFunc("/u/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/u/signup", s.handleSignup).Methods(http.MethodPost)

	projects, investments, investors, transactions := s.collections()

	r.HandleFunc("/projects/", s.handleList(projects, "")).Methods(http.MethodGet)
	r.HandleFunc("/projects/", s.handleCreateProject(projects)).Methods(http.MethodPost)
	r.HandleFunc("/projects/{id:[0-9]+}", s.handleGet(projects)).Methods(http.MethodGet)
	r.HandleFunc("/projects/{id:[0-9]+}", s.handleUpdate(projects)).Methods(http.MethodPut)
	r.HandleFunc("/projects/{id:[0-9]+}", s.handleDelete(projects)).Methods(http.MethodDelete)

	r.HandleFunc("/investments/", s.handleList(investments, "")).Methods(http.MethodGet)
	r.HandleFunc("/investments/", s.handleCreate(investments)).Methods(http.MethodPost)
	r.HandleFunc("/investments/project/{id:[0-9]+}", s.handleList(investments, "project_id")).Methods(http.MethodGet)
	r.HandleFunc("/investments/investor/{id:[0-9]+}", s.handleList(investments, "investor_id")).Methods(http.MethodGet)
	r.HandleFunc("/investments/{id:[0-9]+}", s.handleGet(investments)).Methods(http.MethodGet)
	r.HandleFunc("/investments/{id:[0-9]+}", s.handleUpdate(investments)).Methods(http.MethodPut)
	r.HandleFunc("/investments/{id:[0-9]+}", s.handleDelete(investments)).Methods(http.MethodDelete)

	r.HandleFunc("/investors", s.handleList(investors, "")).Methods(http.MethodGet)
	r.HandleFunc("/investors", s.handleCreate(investors)).Methods(http.MethodPost)
	r.HandleFunc("/investors/{id:[0-9]+}", s.handleGet(investors)).Methods(http.MethodGet)
	r.HandleFunc("/investors/{id:[0-9]+}", s.handleUpdate(investors)).Methods(http.MethodPut)
	r.HandleFunc("/investors/{id:[0-9]+}", s.handleDelete(investors)).Methods(http.MethodDelete)

	r.HandleFunc("/payments/", s.handleCreatePayment).Methods(http.MethodPost)

	r.HandleFunc("/transactions", s.handleList(transactions, "")).Methods(http.MethodGet)
	r.HandleFunc("/transactions", s.handleCreate(transactions)).Methods(http.MethodPost)
	r.HandleFunc("/transactions/{id:[0-9]+}", s.handleGet(transactions)).Methods(http.MethodGet)

	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(s.requireAuth, requireAdmin)
	admin.HandleFunc("/profile", s.handleGetAdminProfile).Methods(http.MethodGet)
	admin.HandleFunc("/profile", s.handleUpdateAdminProfile).Methods(http.MethodPut)
	admin.HandleFunc("/settings", s.handleGetAdminSettings).Methods(http.MethodGet)
	admin.HandleFunc("/settings", s.handleUpdateAdminSettings).Methods(http.MethodPut)
	admin.HandleFunc("/stats", s.handleAdminStats).Methods(http.MethodGet)

	return r
}

// createAccount registers a user. Callers must not hold s.mu.
func (s *Server) createAccount(username, email, password, role, status string) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return model.User{}, fmt.Errorf("error hashing password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(email))
	if _, exists := s.byEmail[key]; exists {
		return model.User{}, errEmailTaken
	}
	s.nextUser++
	now := s.now().UTC()
	u := model.User{
		ID:        s.nextUser,
		Username:  username,
		Email:     strings.TrimSpace(email),
		Role:      role,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[u.ID] = &account{user: u, hash: hash}
	s.byEmail[key] = u.ID
	return u, nil
}

// authenticate checks credentials and stamps the last login.
func (s *Server) authenticate(email, password string) (model.User, bool) {
	s.mu.Lock()
	id, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	var acc *account
	if ok {
		acc = s.accounts[id]
	}
	s.mu.Unlock()
	if acc == nil {
		return model.User{}, false
	}
	if bcrypt.CompareHashAndPassword(acc.hash, []byte(password)) != nil {
		return model.User{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	acc.user.LastLogin = &now
	return acc.user, true
}

func (s *Server) seedSampleData() error {
	if _, err := s.createAccount("ana", "ana@kaia.local", "ana12345", model.RoleUser, "active"); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	start := now.AddDate(0, -2, 0)
	end := now.AddDate(1, 0, 0)
	for _, p := range []model.Project{
		{OwnerID: model.Ptr(int64(1)), Description: model.Ptr("Tilapia farm expansion"), StartDate: &start, EndDate: &end,
			ProfitabilityPercent: 18.5, MinimumInvestment: 5000, RiskLevel: model.Ptr("medium"), Status: model.Ptr("open")},
		{OwnerID: model.Ptr(int64(1)), Description: model.Ptr("Hatchery C"), StartDate: &start,
			ProfitabilityPercent: 12, MinimumInvestment: 2500, RiskLevel: model.Ptr("low"), Status: model.Ptr("closed")},
	} {
		p.CreatedAt = &now
		s.projects.insert(model.ProjectToWire(p))
	}

	s.investors.insert(model.InvestorToWire(model.Investor{
		UserID: 2, Name: "Ana Macuácua", Phone: "+258840000001",
		BornDate: time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC), IdentityCard: "110100000001A", NUIT: "400000001",
	}))

	for _, inv := range []model.Investment{
		{ProjectID: 1, InvestorID: 1, InvestedAmount: 5000, EstimatedProfit: 1250, ApplicationDate: start, CreatedAt: start},
		{ProjectID: 2, InvestorID: 1, InvestedAmount: 3000, ActualProfit: 2800, ApplicationDate: start, CreatedAt: start},
	} {
		s.investments.insert(model.InvestmentToWire(inv))
	}

	s.payments.insert(model.PaymentToWire(model.Payment{PayerFromID: 2, PayerToID: 1, PaidAmount: 5000, CreatedAt: now}))
	s.transactions.insert(model.TransactionToWire(model.Transaction{
		PaymentID: 1, InvestorID: 1, PayerAccount: "258840000001", GatewayRef: "884422", TransactionID: "MP-0001", Amount: 5000,
	}))
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"message":"Failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"message": message})
}
