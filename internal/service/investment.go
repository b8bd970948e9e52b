package service

import (
	"context"
	"strconv"

	"github.com/kaia-invest/kaia-core/internal/apperrors"
	"github.com/kaia-invest/kaia-core/internal/httpclient"
	"github.com/kaia-invest/kaia-core/internal/model"
)

// InvestmentService manages /investments/.
type InvestmentService struct {
	res resource[model.Investment]
}

// NewInvestmentService creates the investment client.
func NewInvestmentService(client *httpclient.Client) *InvestmentService {
	return &InvestmentService{res: resource[model.Investment]{
		client:     client,
		name:       "investments",
		path:       "/investments/",
		listFields: []string{"investments"},
		fromWire:   model.InvestmentFromWire,
		toWire:     model.InvestmentToWire,
		msgs: messages{
			list:   "Failed to load investments",
			get:    "Failed to load investment",
			create: "Failed to create investment",
			update: "Failed to update investment",
			delete: "Failed to delete investment",
		},
	}}
}

// List returns investments, paged by opts.
func (s *InvestmentService) List(ctx context.Context, opts ListOptions) ([]model.Investment, error) {
	return s.res.list(ctx, s.res.path, opts)
}

// ListByProject returns the investments made in one project.
func (s *InvestmentService) ListByProject(ctx context.Context, projectID int64, opts ListOptions) ([]model.Investment, error) {
	return s.res.list(ctx, "/investments/project/"+strconv.FormatInt(projectID, 10), opts)
}

// ListByInvestor returns the investments of one investor.
func (s *InvestmentService) ListByInvestor(ctx context.Context, investorID int64, opts ListOptions) ([]model.Investment, error) {
	return s.res.list(ctx, "/investments/investor/"+strconv.FormatInt(investorID, 10), opts)
}

// Get returns one investment.
func (s *InvestmentService) Get(ctx context.Context, id int64) (model.Investment, error) {
	return s.res.get(ctx, id)
}

// Create records a new investment.
func (s *InvestmentService) Create(ctx context.Context, inv model.Investment) (model.Investment, error) {
	return s.res.create(ctx, inv)
}

// Update replaces a saved investment. An id of 0 counts as missing.
func (s *InvestmentService) Update(ctx context.Context, inv model.Investment) (model.Investment, error) {
	if inv.ID == 0 {
		return model.Investment{}, apperrors.MissingID(s.res.name)
	}
	return s.res.update(ctx, inv.ID, inv)
}

// Delete removes an investment.
func (s *InvestmentService) Delete(ctx context.Context, id int64) error {
	return s.res.delete(ctx, id)
}
