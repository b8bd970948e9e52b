// Package service holds one typed client per remote resource. Every client
// shares one httpclient.Client, so the session credential, envelope handling
// and error mapping behave the same everywhere; only admin settings deviate
// (see AdminSettingsService).
package service

import (
	"github.com/kaia-invest/kaia-core/internal/config"
	"github.com/kaia-invest/kaia-core/internal/httpclient"
	"github.com/kaia-invest/kaia-core/internal/logging"
	"github.com/kaia-invest/kaia-core/internal/session"
)

// Services bundles the resource clients.
type Services struct {
	Auth          *AuthService
	Projects      *ProjectService
	Investments   *InvestmentService
	Investors     *InvestorService
	Payments      *PaymentService
	Transactions  *TransactionService
	AdminProfile  *AdminProfileService
	AdminSettings *AdminSettingsService
	AdminStats    *AdminStatsService
}

// New builds every client over client and sess.
func New(client *httpclient.Client, sess *session.Store, policy config.FallbackPolicy, log *logging.Logger) *Services {
	return &Services{
		Auth:          NewAuthService(client, sess, log),
		Projects:      NewProjectService(client, sess),
		Investments:   NewInvestmentService(client),
		Investors:     NewInvestorService(client),
		Payments:      NewPaymentService(client),
		Transactions:  NewTransactionService(client),
		AdminProfile:  NewAdminProfileService(client),
		AdminSettings: NewAdminSettingsService(client, policy, log),
		AdminStats:    NewAdminStatsService(client),
	}
}
