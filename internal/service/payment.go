package service

import (
	"context"
	"net/http"

	"github.com/kaia-invest/kaia-core/internal/httpclient"
	"github.com/kaia-invest/kaia-core/internal/model"
)

// PaymentService submits payments. The API exposes create only.
type PaymentService struct {
	client *httpclient.Client
}

// NewPaymentService creates the payment client.
func NewPaymentService(client *httpclient.Client) *PaymentService {
	return &PaymentService{client: client}
}

// Create posts req to /payments/ and returns the recorded payment. When the
// server answers without a body the payment is rebuilt from req.
func (s *PaymentService) Create(ctx context.Context, req model.PaymentRequest) (model.Payment, error) {
	wire := model.PaymentRequestToWire(req)
	resp, err := s.client.Do(ctx, httpclient.Request{
		Method:   http.MethodPost,
		Path:     "/payments/",
		Body:     wire,
		Resource: "payments",
		Fallback: "Failed to process payment",
	})
	if err != nil {
		return model.Payment{}, err
	}
	env := resp.Value()
	if env.Empty() {
		return model.PaymentFromWire(wire), nil
	}
	return model.PaymentFromWire(env.Record()), nil
}

// TransactionService manages /transactions. Transactions are immutable once
// recorded.
type TransactionService struct {
	res resource[model.Transaction]
}

// NewTransactionService creates the transaction client.
func NewTransactionService(client *httpclient.Client) *TransactionService {
	return &TransactionService{res: resource[model.Transaction]{
		client:     client,
		name:       "transactions",
		path:       "/transactions",
		listFields: []string{"transactions"},
		fromWire:   model.TransactionFromWire,
		toWire:     model.TransactionToWire,
		msgs: messages{
			list:   "Failed to list transactions",
			get:    "Failed to load transaction",
			create: "Failed to create transaction",
		},
	}}
}

func (s *TransactionService) List(ctx context.Context, opts ListOptions) ([]model.Transaction, error) {
	return s.res.list(ctx, s.res.path, opts)
}

func (s *TransactionService) Get(ctx context.Context, id int64) (model.Transaction, error) {
	return s.res.get(ctx, id)
}

func (s *TransactionService) Create(ctx context.Context, tx model.Transaction) (model.Transaction, error) {
	return s.res.create(ctx, tx)
}
