package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/kaia-invest/kaia-core/internal/aggregate"
	"github.com/kaia-invest/kaia-core/internal/apperrors"
	"github.com/kaia-invest/kaia-core/internal/coerce"
	"github.com/kaia-invest/kaia-core/internal/model"
	"github.com/kaia-invest/kaia-core/internal/service"
	"github.com/kaia-invest/kaia-core/internal/session"
)

func newFlags(e *env, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(prog+" "+name, flag.ContinueOnError)
	fs.SetOutput(e.out.Err)
	return fs
}

// visited reports which flags were given on the command line.
func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

func listFlags(fs *flag.FlagSet) *service.ListOptions {
	opts := &service.ListOptions{}
	fs.IntVar(&opts.Limit, "limit", 0, "maximum number of rows")
	fs.IntVar(&opts.Offset, "offset", 0, "rows to skip")
	return opts
}

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func optional[T any](v *T, format func(T) string) string {
	if v == nil {
		return "-"
	}
	return format(*v)
}

func str(s string) string { return s }

func id(v int64) string { return strconv.FormatInt(v, 10) }

func cmdLogin(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		fs.Usage()
		return errUsage
	}

	u, err := e.app.Auth.Login(ctx, model.AuthRequest{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	e.out.Success("logged in as %s (%s), landing on %s", u.Username, u.Role, session.Landing(u.Role))
	return nil
}

func cmdSignup(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "signup")
	username := fs.String("username", "", "user name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *email == "" || *password == "" {
		fs.Usage()
		return errUsage
	}

	if err := e.app.Auth.Signup(ctx, model.SignupRequest{Username: *username, Email: *email, Password: *password}); err != nil {
		return err
	}
	e.out.Success("account %s created, log in to continue", *email)
	return nil
}

func cmdLogout(ctx context.Context, e *env, _ []string) error {
	if err := e.app.Auth.Logout(ctx); err != nil {
		return err
	}
	e.out.Success("logged out")
	return nil
}

func cmdWhoami(ctx context.Context, e *env, _ []string) error {
	if e.app.Session.State(ctx) != session.Authenticated {
		return errors.New("not logged in")
	}
	u, err := e.app.Session.GetProfile(ctx)
	if err != nil {
		return err
	}
	return e.out.Table(
		[]string{"ID", "USERNAME", "EMAIL", "ROLE", "STATUS"},
		[][]string{{id(u.ID), u.Username, u.Email, u.Role, u.Status}},
	)
}

func cmdProjects(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "projects")
	status := fs.String("status", "", "only projects with this status")
	opts := listFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := e.app.Projects.List(ctx, *opts)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(list))
	for _, p := range aggregate.FilterProjects(list, *status) {
		rows = append(rows, []string{
			optional(p.ID, id),
			optional(p.OwnerID, id),
			optional(p.Description, str),
			money(p.ProfitabilityPercent),
			money(p.MinimumInvestment),
			optional(p.RiskLevel, str),
			p.StatusOr("-"),
		})
	}
	return e.out.Table([]string{"ID", "OWNER", "DESCRIPTION", "PROFIT %", "MINIMUM", "RISK", "STATUS"}, rows)
}

func cmdProjectCreate(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "project-create")
	description := fs.String("description", "", "project description")
	profit := fs.Float64("profitability", 0, "expected profitability percent")
	minimum := fs.Float64("minimum", 0, "minimum investment")
	risk := fs.String("risk", "", "risk level")
	status := fs.String("status", "", "project status")
	start := fs.String("start", "", "start date (YYYY-MM-DD)")
	end := fs.String("end", "", "end date (YYYY-MM-DD)")
	imagePath := fs.String("image", "", "image file to upload")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *description == "" {
		fs.Usage()
		return errUsage
	}

	set := visited(fs)
	p := model.Project{
		Description:          description,
		ProfitabilityPercent: *profit,
		MinimumInvestment:    *minimum,
		StartDate:            coerce.ToDate(*start),
		EndDate:              coerce.ToDate(*end),
	}
	if set["risk"] {
		p.RiskLevel = risk
	}
	if set["status"] {
		p.Status = status
	}

	var created model.Project
	var err error
	if *imagePath != "" {
		content, readErr := os.ReadFile(*imagePath)
		if readErr != nil {
			return fmt.Errorf("read image: %w", readErr)
		}
		created, err = e.app.Projects.CreateWithImage(ctx, p, &service.Image{Name: *imagePath, Content: content})
	} else {
		created, err = e.app.Projects.Create(ctx, p)
	}
	if err != nil {
		return err
	}
	e.out.Success("project %s created", optional(created.ID, id))
	return nil
}

func cmdInvestments(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "investments")
	completed := fs.Bool("completed", false, "show completed instead of active investments")
	investor := fs.Int64("investor", 0, "only investments of this investor")
	project := fs.Int64("project", 0, "only investments in this project")
	opts := listFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	var list []model.Investment
	var err error
	switch {
	case *investor > 0:
		list, err = e.app.Investments.ListByInvestor(ctx, *investor, *opts)
	case *project > 0:
		list, err = e.app.Investments.ListByProject(ctx, *project, *opts)
	default:
		list, err = e.app.Investments.List(ctx, *opts)
	}
	if err != nil {
		return err
	}

	state := aggregate.Active
	if *completed {
		state = aggregate.Completed
	}
	rows := [][]string{}
	for _, inv := range aggregate.FilterInvestments(list, state) {
		profit := inv.EstimatedProfit
		if inv.Completed() {
			profit = inv.ActualProfit
		}
		rows = append(rows, []string{
			id(inv.ID), id(inv.ProjectID), id(inv.InvestorID),
			money(inv.InvestedAmount), money(profit), inv.ApplicationDate.Format("2006-01-02"),
		})
	}
	if err := e.out.Table([]string{"ID", "PROJECT", "INVESTOR", "INVESTED", "PROFIT", "APPLIED"}, rows); err != nil {
		return err
	}
	sum := aggregate.SummarizeInvestments(list, state)
	e.out.Info("%d %s, %s invested, %s profit", sum.Count, state, money(sum.TotalInvested), money(sum.TotalProfit))
	return nil
}

func cmdInvestors(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "investors")
	opts := listFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := e.app.Investors.List(ctx, *opts)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(list))
	for _, inv := range list {
		rows = append(rows, []string{optional(inv.ID, id), id(inv.UserID), inv.Name, inv.Phone, inv.NUIT})
	}
	return e.out.Table([]string{"ID", "USER", "NAME", "PHONE", "NUIT"}, rows)
}

func cmdTransactions(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "transactions")
	status := fs.String("status", string(aggregate.TxAll), "all, approved, pending, failed, processing or refunded")
	query := fs.String("q", "", "search transaction id, gateway reference or payer account")
	opts := listFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := e.app.Transactions.List(ctx, *opts)
	if err != nil {
		return err
	}
	shown := aggregate.FilterTransactions(list, aggregate.TransactionState(*status), *query)
	rows := make([][]string, 0, len(shown))
	for _, tx := range shown {
		rows = append(rows, []string{
			optional(tx.ID, id), tx.TransactionID, tx.GatewayRef, tx.PayerAccount,
			money(tx.Amount), string(aggregate.TransactionStatus(tx)),
		})
	}
	if err := e.out.Table([]string{"ID", "TRANSACTION", "GATEWAY REF", "PAYER", "AMOUNT", "STATUS"}, rows); err != nil {
		return err
	}
	sum := aggregate.SummarizeTransactions(shown)
	e.out.Info("%d transactions, %s total, %d approved, %d failed", sum.Count, money(sum.Total), sum.Approved, sum.Failed)
	return nil
}

func cmdPay(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "pay")
	from := fs.Int64("from", 0, "paying party id")
	to := fs.Int64("to", 0, "receiving party id")
	amount := fs.Float64("amount", 0, "amount paid")
	total := fs.Float64("total", 0, "total being settled (defaults to amount)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *from == 0 || *to == 0 || *amount <= 0 {
		fs.Usage()
		return errUsage
	}
	if *total == 0 {
		*total = *amount
	}

	p, err := e.app.Payments.Create(ctx, model.PaymentRequest{
		PayerFromID: *from,
		PayerToID:   *to,
		PaidAmount:  *amount,
		TotalAmount: *total,
	})
	if err != nil {
		return err
	}
	e.out.Success("payment %d registered: %s from %d to %d", p.ID, money(p.PaidAmount), p.PayerFromID, p.PayerToID)
	return nil
}

func cmdSettings(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "settings")
	theme := fs.String("theme", "", "light or dark")
	push := fs.Bool("push", false, "push notifications")
	email := fs.Bool("email", false, "email notifications")
	twoFactor := fs.Bool("2fa", false, "two-factor authentication")
	if err := fs.Parse(args); err != nil {
		return err
	}

	settings, err := e.app.AdminSettings.Load(ctx)
	if err != nil {
		return err
	}

	set := visited(fs)
	if len(set) > 0 {
		if set["theme"] {
			settings.Theme = *theme
		}
		if set["push"] {
			settings.PushNotifications = *push
		}
		if set["email"] {
			settings.EmailNotifications = *email
		}
		if set["2fa"] {
			settings.TwoFactorEnabled = *twoFactor
		}
		if settings, err = e.app.AdminSettings.Save(ctx, settings); err != nil {
			return err
		}
		e.out.Success("settings saved")
	}

	return e.out.Table(
		[]string{"PUSH", "EMAIL", "THEME", "2FA"},
		[][]string{{
			strconv.FormatBool(settings.PushNotifications),
			strconv.FormatBool(settings.EmailNotifications),
			settings.Theme,
			strconv.FormatBool(settings.TwoFactorEnabled),
		}},
	)
}

func cmdStats(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "stats")
	local := fs.Bool("local", false, "compute from the resource lists instead of /admin/stats")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var stats []model.AdminStat
	var err error
	if *local {
		stats, err = localStats(ctx, e)
	} else {
		stats, err = e.app.AdminStats.Stats(ctx)
		if apperrors.IsUnauthorized(err) {
			e.out.Warning("the server refused the dashboard, try -local")
		}
	}
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(stats))
	for _, st := range stats {
		rows = append(rows, []string{st.Title, st.Value})
	}
	return e.out.Table([]string{"STAT", "VALUE"}, rows)
}

func localStats(ctx context.Context, e *env) ([]model.AdminStat, error) {
	investors, err := e.app.Investors.List(ctx, service.ListOptions{})
	if err != nil {
		return nil, err
	}
	investments, err := e.app.Investments.List(ctx, service.ListOptions{})
	if err != nil {
		return nil, err
	}
	projects, err := e.app.Projects.List(ctx, service.ListOptions{})
	if err != nil {
		return nil, err
	}
	return aggregate.DashboardStats(investors, investments, projects), nil
}
