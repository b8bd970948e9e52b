package model

import (
	"time"

	"github.com/kaia-invest/kaia-core/internal/coerce"
)

// Investor is the investment profile attached to a user.
type Investor struct {
	ID           *int64
	UserID       int64
	Name         string
	Phone        string
	BornDate     time.Time
	IdentityCard string
	NUIT         string
	CreatedAt    *time.Time
	UpdatedAt    *time.Time
}

// InvestorFromWire decodes an investor.
func InvestorFromWire(r Record) Investor {
	return Investor{
		ID:           optInt(r, "id"),
		UserID:       coerce.ToInt(r.Get("user_id")),
		Name:         coerce.ToStr(r.Get("name")),
		Phone:        coerce.ToStr(r.Get("phone")),
		BornDate:     dateOrNow(r.Get("born_date")),
		IdentityCard: coerce.ToStr(r.Get("identity_card")),
		NUIT:         coerce.ToStr(r.Get("nuit")),
		CreatedAt:    coerce.ToDate(r.Get("created_at")),
		UpdatedAt:    coerce.ToDate(r.Get("updated_at")),
	}
}

// InvestorToWire encodes an investor. Timestamps are server-owned and never
// sent.
func InvestorToWire(m Investor) Record {
	r := Record{
		"user_id":       m.UserID,
		"name":          m.Name,
		"phone":         m.Phone,
		"identity_card": m.IdentityCard,
		"nuit":          m.NUIT,
	}
	putInt(r, "id", m.ID)
	putTime(r, "born_date", m.BornDate)
	return r
}
