// Package aggregate computes summaries over already-fetched domain
// collections. Nothing here performs I/O.
package aggregate

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kaia-invest/kaia-core/internal/model"
)

// InvestmentState classifies an investment.
type InvestmentState string

const (
	Active    InvestmentState = "active"
	Completed InvestmentState = "completed"
)

// InvestmentStatus is Completed once actual profit is positive.
func InvestmentStatus(inv model.Investment) InvestmentState {
	if inv.Completed() {
		return Completed
	}
	return Active
}

// FilterInvestments keeps the investments in state, preserving order.
func FilterInvestments(list []model.Investment, state InvestmentState) []model.Investment {
	out := make([]model.Investment, 0, len(list))
	for _, inv := range list {
		if InvestmentStatus(inv) == state {
			out = append(out, inv)
		}
	}
	return out
}

// InvestmentSummary totals a filtered view.
type InvestmentSummary struct {
	Count         int
	TotalInvested float64
	// TotalProfit is estimated profit for Active and actual profit for
	// Completed.
	TotalProfit float64
}

// SummarizeInvestments filters list by state and totals the result.
func SummarizeInvestments(list []model.Investment, state InvestmentState) InvestmentSummary {
	var sum InvestmentSummary
	for _, inv := range FilterInvestments(list, state) {
		sum.Count++
		sum.TotalInvested += inv.InvestedAmount
		if state == Completed {
			sum.TotalProfit += inv.ActualProfit
		} else {
			sum.TotalProfit += inv.EstimatedProfit
		}
	}
	return sum
}

// TransactionState is the display status of a transaction.
type TransactionState string

const (
	TxAll        TransactionState = "all"
	TxApproved   TransactionState = "approved"
	TxPending    TransactionState = "pending"
	TxFailed     TransactionState = "failed"
	TxProcessing TransactionState = "processing"
	TxRefunded   TransactionState = "refunded"
)

// TransactionStatus derives the status from the payment reference. Unknown
// references read as pending.
func TransactionStatus(tx model.Transaction) TransactionState {
	switch tx.PaymentID {
	case 1:
		return TxApproved
	case 2:
		return TxPending
	case 3:
		return TxFailed
	case 4:
		return TxProcessing
	case 5:
		return TxRefunded
	default:
		return TxPending
	}
}

// FilterTransactions keeps transactions in state whose transaction id,
// gateway reference or payer account contains query, ignoring case. An
// empty state or TxAll matches every status; a blank query matches
// everything.
func FilterTransactions(list []model.Transaction, state TransactionState, query string) []model.Transaction {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]model.Transaction, 0, len(list))
	for _, tx := range list {
		if state != "" && state != TxAll && TransactionStatus(tx) != state {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(tx.TransactionID), q) &&
			!strings.Contains(strings.ToLower(tx.GatewayRef), q) &&
			!strings.Contains(strings.ToLower(tx.PayerAccount), q) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// TransactionSummary totals a list of transactions.
type TransactionSummary struct {
	Count    int
	Total    float64
	Approved int
	Failed   int
}

func SummarizeTransactions(list []model.Transaction) TransactionSummary {
	sum := TransactionSummary{Count: len(list)}
	for _, tx := range list {
		sum.Total += tx.Amount
		switch TransactionStatus(tx) {
		case TxApproved:
			sum.Approved++
		case TxFailed:
			sum.Failed++
		}
	}
	return sum
}

// FilterProjects keeps projects whose status equals status, ignoring case.
// An empty status keeps everything.
func FilterProjects(list []model.Project, status string) []model.Project {
	out := make([]model.Project, 0, len(list))
	for _, p := range list {
		if status == "" || strings.EqualFold(p.StatusOr(""), status) {
			out = append(out, p)
		}
	}
	return out
}

// Dashboard tile titles.
const (
	StatInvestors      = "Total Investors"
	StatInvested       = "Total Invested"
	StatDistributed    = "Distributed Profit"
	StatActiveProjects = "Active Projects"
)

// DashboardStats builds the admin dashboard tiles from fetched
// collections. A project counts as active unless its status is one of
// closedProjectStatuses.
func DashboardStats(investors []model.Investor, investments []model.Investment, projects []model.Project) []model.AdminStat {
	var invested, distributed float64
	for _, inv := range investments {
		invested += inv.InvestedAmount
		if inv.Completed() {
			distributed += inv.ActualProfit
		}
	}
	active := 0
	for _, p := range projects {
		if !closedProjectStatuses[strings.ToLower(p.StatusOr(""))] {
			active++
		}
	}

	pr := message.NewPrinter(language.English)
	return []model.AdminStat{
		{Title: StatInvestors, Value: pr.Sprintf("%d", len(investors)), Icon: "groups"},
		{Title: StatInvested, Value: pr.Sprintf("$%.0f", invested), Icon: "account_balance_wallet"},
		{Title: StatDistributed, Value: pr.Sprintf("$%.0f", distributed), Icon: "paid"},
		{Title: StatActiveProjects, Value: pr.Sprintf("%d", active), Icon: "compost"},
	}
}

var closedProjectStatuses = map[string]bool{
	"closed":    true,
	"completed": true,
	"concluído": true,
	"paused":    true,
	"pausado":   true,
}
