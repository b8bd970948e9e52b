package model

import (
	"time"

	"github.com/kaia-invest/kaia-core/internal/coerce"
)

// Investment is an investor's stake in a project. A positive ActualProfit
// marks it completed.
type Investment struct {
	ID              int64
	ProjectID       int64
	InvestorID      int64
	InvestedAmount  float64
	ApplicationDate time.Time
	EstimatedProfit float64
	ActualProfit    float64
	Note            *string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// InvestmentFromWire decodes an investment.
func InvestmentFromWire(r Record) Investment {
	return Investment{
		ID:              coerce.ToInt(r.Get("id")),
		ProjectID:       coerce.ToInt(r.Get("project_id")),
		InvestorID:      coerce.ToInt(r.Get("investor_id")),
		InvestedAmount:  coerce.ToNum(r.Get("invested_amount")),
		ApplicationDate: dateOrNow(r.Get("application_date")),
		EstimatedProfit: coerce.ToNum(r.Get("estimated_profit")),
		ActualProfit:    coerce.ToNum(r.Get("actual_profit")),
		Note:            optStr(r, "note"),
		CreatedAt:       dateOrNow(r.Get("created_at")),
		UpdatedAt:       coerce.ToDate(r.Get("updated_at")),
	}
}

// InvestmentToWire encodes an investment.
func InvestmentToWire(m Investment) Record {
	r := Record{
		"id":               m.ID,
		"project_id":       m.ProjectID,
		"investor_id":      m.InvestorID,
		"invested_amount":  m.InvestedAmount,
		"estimated_profit": m.EstimatedProfit,
		"actual_profit":    m.ActualProfit,
	}
	putTime(r, "application_date", m.ApplicationDate)
	putStr(r, "note", m.Note)
	putTime(r, "created_at", m.CreatedAt)
	putDate(r, "updated_at", m.UpdatedAt)
	return r
}

// Completed reports whether profit has been realized.
func (m Investment) Completed() bool { return m.ActualProfit > 0 }
