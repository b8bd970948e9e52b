package model

import (
	"encoding/json"
	"time"

	"github.com/kaia-invest/kaia-core/internal/coerce"
)

// Payment moves money between two parties.
type Payment struct {
	ID          int64
	PayerFromID int64
	PayerToID   int64
	PaidAmount  float64
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// PaymentFromWire decodes a payment.
func PaymentFromWire(r Record) Payment {
	return Payment{
		ID:          coerce.ToInt(r.Get("id")),
		PayerFromID: coerce.ToInt(r.Get("payer_from_id")),
		PayerToID:   coerce.ToInt(r.Get("payer_to_id")),
		PaidAmount:  coerce.ToNum(r.Get("paid_amount")),
		CreatedAt:   dateOrNow(r.Get("created_at")),
		UpdatedAt:   coerce.ToDate(r.Get("updated_at")),
	}
}

// PaymentToWire encodes a payment.
func PaymentToWire(m Payment) Record {
	r := Record{
		"id":            m.ID,
		"payer_from_id": m.PayerFromID,
		"payer_to_id":   m.PayerToID,
		"paid_amount":   m.PaidAmount,
	}
	putTime(r, "created_at", m.CreatedAt)
	putDate(r, "updated_at", m.UpdatedAt)
	return r
}

// PaymentRequest is the create-payment payload. Unlike Payment it carries
// the total being settled.
type PaymentRequest struct {
	ID          *int64
	PayerFromID int64
	PayerToID   int64
	PaidAmount  float64
	TotalAmount float64
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

// PaymentRequestToWire fills the defaults the endpoint expects: id 0,
// created_at now and updated_at equal to created_at.
func PaymentRequestToWire(p PaymentRequest) Record {
	created := now()
	if p.CreatedAt != nil {
		created = *p.CreatedAt
	}
	updated := created
	if p.UpdatedAt != nil {
		updated = *p.UpdatedAt
	}
	var id int64
	if p.ID != nil {
		id = *p.ID
	}
	r := Record{
		"id":            id,
		"payer_from_id": p.PayerFromID,
		"payer_to_id":   p.PayerToID,
		"paid_amount":   p.PaidAmount,
		"total_amount":  p.TotalAmount,
	}
	putTime(r, "created_at", created)
	putTime(r, "updated_at", updated)
	return r
}

// Transaction is a gateway settlement of a payment.
//
// GatewayRef and TransactionID arrive as numbers or strings depending on the
// gateway; they are always strings here.
type Transaction struct {
	ID            *int64
	PaymentID     int64
	InvestorID    int64
	PayerAccount  string
	GatewayRef    string
	TransactionID string
	Amount        float64
}

// TransactionFromWire decodes a transaction.
func TransactionFromWire(r Record) Transaction {
	return Transaction{
		ID:            optInt(r, "id"),
		PaymentID:     coerce.ToInt(r.Get("payment_id")),
		InvestorID:    coerce.ToInt(r.Get("investor_id")),
		PayerAccount:  coerce.ToStr(r.Get("payer_account")),
		GatewayRef:    coerce.ToStr(r.Get("gateway_ref")),
		TransactionID: coerce.ToStr(r.Get("transaction_id")),
		Amount:        coerce.ToNum(r.Get("amount")),
	}
}

// TransactionToWire encodes a transaction, re-emitting entirely numeric
// gateway fields as JSON numbers.
func TransactionToWire(m Transaction) Record {
	r := Record{
		"payment_id":     m.PaymentID,
		"investor_id":    m.InvestorID,
		"payer_account":  m.PayerAccount,
		"gateway_ref":    numberOrString(m.GatewayRef),
		"transaction_id": numberOrString(m.TransactionID),
		"amount":         m.Amount,
	}
	putInt(r, "id", m.ID)
	return r
}

func numberOrString(s string) any {
	if n, ok := coerce.CanonicalNumber(s); ok {
		return json.Number(n)
	}
	return s
}
