package model

import (
	"time"

	"github.com/kaia-invest/kaia-core/internal/coerce"
)

// Project is an investable venture. ID stays nil until the server assigns one.
type Project struct {
	ID                   *int64
	OwnerID              *int64
	Description          *string
	StartDate            *time.Time
	EndDate              *time.Time
	ProfitabilityPercent float64
	MinimumInvestment    float64
	RiskLevel            *string
	Status               *string
	MediaPath            *string
	InvestmentAchieved   *float64
	TotalProfit          *float64
	CreatedAt            *time.Time
	UpdatedAt            *time.Time
}

// ProjectFromWire decodes a project.
func ProjectFromWire(r Record) Project {
	return Project{
		ID:                   optInt(r, "id"),
		OwnerID:              optInt(r, "owner_id"),
		Description:          optStr(r, "description"),
		StartDate:            coerce.ToDate(r.Get("start_date")),
		EndDate:              coerce.ToDate(r.Get("end_date")),
		ProfitabilityPercent: coerce.ToNum(r.Get("profitability_percent")),
		MinimumInvestment:    coerce.ToNum(r.Get("minimum_investment")),
		RiskLevel:            optStr(r, "risk_level"),
		Status:               optStr(r, "status"),
		MediaPath:            optStr(r, "media_path"),
		InvestmentAchieved:   optNum(r, "investment_achieved"),
		TotalProfit:          optNum(r, "total_profit"),
		CreatedAt:            coerce.ToDate(r.Get("created_at")),
		UpdatedAt:            coerce.ToDate(r.Get("updated_at")),
	}
}

// ProjectToWire encodes a project.
func ProjectToWire(p Project) Record {
	r := Record{
		"profitability_percent": p.ProfitabilityPercent,
		"minimum_investment":    p.MinimumInvestment,
	}
	putInt(r, "id", p.ID)
	putInt(r, "owner_id", p.OwnerID)
	putStr(r, "description", p.Description)
	putDate(r, "start_date", p.StartDate)
	putDate(r, "end_date", p.EndDate)
	putStr(r, "risk_level", p.RiskLevel)
	putStr(r, "status", p.Status)
	putStr(r, "media_path", p.MediaPath)
	putNum(r, "investment_achieved", p.InvestmentAchieved)
	putNum(r, "total_profit", p.TotalProfit)
	putDate(r, "created_at", p.CreatedAt)
	putDate(r, "updated_at", p.UpdatedAt)
	return r
}

// WithOwner returns a copy of p owned by ownerID.
func (p Project) WithOwner(ownerID int64) Project {
	p.OwnerID = &ownerID
	return p
}

// StatusOr returns the status or def when unset.
func (p Project) StatusOr(def string) string {
	if p.Status == nil {
		return def
	}
	return *p.Status
}
