package service

import (
	"context"

	"github.com/kaia-invest/kaia-core/internal/apperrors"
	"github.com/kaia-invest/kaia-core/internal/httpclient"
	"github.com/kaia-invest/kaia-core/internal/model"
)

// InvestorService manages /investors.
type InvestorService struct {
	res resource[model.Investor]
}

// NewInvestorService creates the investor client.
func NewInvestorService(client *httpclient.Client) *InvestorService {
	return &InvestorService{res: resource[model.Investor]{
		client:     client,
		name:       "investors",
		path:       "/investors",
		listFields: []string{"investors"},
		fromWire:   model.InvestorFromWire,
		toWire:     model.InvestorToWire,
		msgs: messages{
			list:   "Failed to load investors",
			get:    "Failed to load investor",
			create: "Failed to create investor",
			update: "Failed to update investor",
			delete: "Failed to delete investor",
		},
	}}
}

func (s *InvestorService) List(ctx context.Context, opts ListOptions) ([]model.Investor, error) {
	return s.res.list(ctx, s.res.path, opts)
}

func (s *InvestorService) Get(ctx context.Context, id int64) (model.Investor, error) {
	return s.res.get(ctx, id)
}

func (s *InvestorService) Create(ctx context.Context, inv model.Investor) (model.Investor, error) {
	return s.res.create(ctx, inv)
}

func (s *InvestorService) Update(ctx context.Context, inv model.Investor) (model.Investor, error) {
	if inv.ID == nil || *inv.ID == 0 {
		return model.Investor{}, apperrors.MissingID(s.res.name)
	}
	return s.res.update(ctx, *inv.ID, inv)
}

func (s *InvestorService) Delete(ctx context.Context, id int64) error {
	return s.res.delete(ctx, id)
}
