package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/kaia-invest/kaia-core/internal/apperrors"
	"github.com/kaia-invest/kaia-core/internal/config"
	"github.com/kaia-invest/kaia-core/internal/httpclient"
	"github.com/kaia-invest/kaia-core/internal/logging"
	"github.com/kaia-invest/kaia-core/internal/metrics"
	"github.com/kaia-invest/kaia-core/internal/model"
)

const (
	adminProfilePath  = "/admin/profile"
	adminSettingsPath = "/admin/settings"
	adminStatsPath    = "/admin/stats"
)

// AdminProfileService reads and writes the administrator profile. Both
// operations need a stored credential.
type AdminProfileService struct {
	client *httpclient.Client
}

// NewAdminProfileService creates the admin profile client.
func NewAdminProfileService(client *httpclient.Client) *AdminProfileService {
	return &AdminProfileService{client: client}
}

// Get fetches the profile. Without a credential it fails with
// apperrors.ErrNoCredential and sends nothing.
func (s *AdminProfileService) Get(ctx context.Context) (model.AdminProfile, error) {
	resp, err := s.client.Do(ctx, httpclient.Request{
		Method:      http.MethodGet,
		Path:        adminProfilePath,
		RequireAuth: true,
		Resource:    "admin_profile",
		Fallback:    "Failed to load profile",
	})
	if err != nil {
		return model.AdminProfile{}, err
	}
	return model.AdminProfileFromWire(resp.Value().Record()), nil
}

// Update saves p and returns the stored profile, or p itself when the
// server answers without a body.
func (s *AdminProfileService) Update(ctx context.Context, p model.AdminProfile) (model.AdminProfile, error) {
	resp, err := s.client.Do(ctx, httpclient.Request{
		Method:      http.MethodPut,
		Path:        adminProfilePath,
		Body:        model.AdminProfileToWire(p),
		RequireAuth: true,
		Resource:    "admin_profile",
		Fallback:    "Failed to update profile",
	})
	if err != nil {
		return model.AdminProfile{}, err
	}
	env := resp.Value()
	if env.Empty() {
		return p, nil
	}
	return model.AdminProfileFromWire(env.Record()), nil
}

var (
	// SessionlessSettings is what Load answers with no credential stored.
	SessionlessSettings = model.AdminSettings{
		PushNotifications:  true,
		EmailNotifications: true,
		Theme:              "light",
	}
	// OfflineSettings is what Load answers when the request fails.
	OfflineSettings = model.AdminSettings{
		PushNotifications: true,
		Theme:             "light",
	}
)

// AdminSettingsService loads and saves administrator preferences.
//
// Under config.FallbackLocal neither operation returns an error: a missing
// credential or any failure is answered with local values (see
// SessionlessSettings, OfflineSettings; Save echoes its input). Every such
// answer is logged and counted. Under config.FallbackStrict errors surface.
type AdminSettingsService struct {
	client *httpclient.Client
	policy config.FallbackPolicy
	log    *logging.Logger
}

// NewAdminSettingsService creates the settings client. An empty policy
// means config.FallbackLocal.
func NewAdminSettingsService(client *httpclient.Client, policy config.FallbackPolicy, log *logging.Logger) *AdminSettingsService {
	if policy == "" {
		policy = config.FallbackLocal
	}
	if log == nil {
		log = logging.Discard()
	}
	return &AdminSettingsService{client: client, policy: policy, log: log}
}

// Policy returns the active fallback policy.
func (s *AdminSettingsService) Policy() config.FallbackPolicy { return s.policy }

// Load fetches the settings.
func (s *AdminSettingsService) Load(ctx context.Context) (model.AdminSettings, error) {
	resp, err := s.client.Do(ctx, httpclient.Request{
		Method:      http.MethodGet,
		Path:        adminSettingsPath,
		RequireAuth: true,
		Resource:    "admin_settings",
		Fallback:    "Failed to load settings",
	})
	if err != nil {
		fallback := OfflineSettings
		if errors.Is(err, apperrors.ErrNoCredential) {
			fallback = SessionlessSettings
		}
		return s.absorb(ctx, "load", err, fallback)
	}
	return model.AdminSettingsFromWire(resp.Value().Record()), nil
}

// Save stores settings and returns what the server kept.
func (s *AdminSettingsService) Save(ctx context.Context, settings model.AdminSettings) (model.AdminSettings, error) {
	resp, err := s.client.Do(ctx, httpclient.Request{
		Method:      http.MethodPut,
		Path:        adminSettingsPath,
		Body:        model.AdminSettingsToWire(settings),
		RequireAuth: true,
		Resource:    "admin_settings",
		Fallback:    "Failed to save settings",
	})
	if err != nil {
		return s.absorb(ctx, "save", err, settings)
	}
	env := resp.Value()
	if env.Empty() {
		return settings, nil
	}
	return model.AdminSettingsFromWire(env.Record()), nil
}

func (s *AdminSettingsService) absorb(ctx context.Context, op string, err error, fallback model.AdminSettings) (model.AdminSettings, error) {
	if s.policy == config.FallbackStrict {
		return model.AdminSettings{}, err
	}
	metrics.RecordFallback("admin_settings", op)
	s.log.WithContext(ctx).WithError(err).WithField("op", op).Warn("admin settings answered locally")
	return fallback, nil
}

// AdminStatsService reads the dashboard tiles.
type AdminStatsService struct {
	client *httpclient.Client
}

// NewAdminStatsService creates the stats client.
func NewAdminStatsService(client *httpclient.Client) *AdminStatsService {
	return &AdminStatsService{client: client}
}

// Stats returns the dashboard tiles.
func (s *AdminStatsService) Stats(ctx context.Context) ([]model.AdminStat, error) {
	resp, err := s.client.Do(ctx, httpclient.Request{
		Method:      http.MethodGet,
		Path:        adminStatsPath,
		RequireAuth: true,
		Resource:    "admin_stats",
		Fallback:    "Failed to load statistics",
	})
	if err != nil {
		return nil, err
	}
	records := resp.List("stats").Records()
	out := make([]model.AdminStat, 0, len(records))
	for _, r := range records {
		out = append(out, model.AdminStatFromWire(r))
	}
	return out, nil
}
