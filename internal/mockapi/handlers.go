package mockapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/kaia-invest/kaia-core/internal/aggregate"
	"github.com/kaia-invest/kaia-core/internal/coerce"
	"github.com/kaia-invest/kaia-core/internal/model"
)

const (
	maxJSONBody      = 1 << 20
	maxMultipartBody = 10 << 20
)

var errEmailTaken = errors.New("email already registered")

// shape wraps a payload the way one endpoint of the real API does.
type shape func(v any) any

func bare(v any) any { return v }

func data(v any) any { return map[string]any{"data": v} }

func named(key string) shape {
	return func(v any) any { return map[string]any{key: v} }
}

// collection describes one CRUD resource and the envelopes it answers with.
type collection struct {
	table     *table
	normalize func(model.Record) model.Record
	list      shape
	item      shape
	notFound  string
}

func (s *Server) collections() (projects, investments, investors, transactions *collection) {
	projects = &collection{
		table:     s.projects,
		normalize: func(r model.Record) model.Record { return model.ProjectToWire(model.ProjectFromWire(r)) },
		list:      named("projects"),
		item:      data,
		notFound:  "Project not found",
	}
	investments = &collection{
		table:     s.investments,
		normalize: func(r model.Record) model.Record { return model.InvestmentToWire(model.InvestmentFromWire(r)) },
		list:      data,
		item:      data,
		notFound:  "Investment not found",
	}
	investors = &collection{
		table:     s.investors,
		normalize: func(r model.Record) model.Record { return model.InvestorToWire(model.InvestorFromWire(r)) },
		list:      bare,
		item:      bare,
		notFound:  "Investor not found",
	}
	transactions = &collection{
		table:     s.transactions,
		normalize: func(r model.Record) model.Record { return model.TransactionToWire(model.TransactionFromWire(r)) },
		list:      bare,
		item:      data,
		notFound:  "Transaction not found",
	}
	return projects, investments, investors, transactions
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

// handleList answers with every row, optionally narrowed to rows whose
// field equals the {id} path variable, paged by limit and offset.
func (s *Server) handleList(c *collection, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var keep func(model.Record) bool
		if field != "" {
			id, ok := pathID(w, r)
			if !ok {
				return
			}
			keep = func(row model.Record) bool { return coerce.ToInt(row.Get(field)) == id }
		}

		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		offset, _ := strconv.Atoi(q.Get("offset"))

		s.mu.Lock()
		rows := page(c.table.list(keep), limit, offset)
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, c.list(rows))
	}
}

func (s *Server) handleGet(c *collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		s.mu.Lock()
		row, found := c.table.get(id)
		s.mu.Unlock()
		if !found {
			jsonError(w, c.notFound, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, c.item(row))
	}
}

func (s *Server) handleCreate(c *collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}
		s.mu.Lock()
		row := c.table.insert(c.normalize(body))
		s.mu.Unlock()
		writeJSON(w, http.StatusCreated, c.item(row))
	}
}

// handleUpdate merges the body over the stored row.
func (s *Server) handleUpdate(c *collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		body, ok := decodeBody(w, r)
		if !ok {
			return
		}

		s.mu.Lock()
		existing, found := c.table.get(id)
		var row model.Record
		if found {
			row = c.normalize(merge(existing, body))
			c.table.put(id, row)
		}
		s.mu.Unlock()

		if !found {
			jsonError(w, c.notFound, http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, c.item(row))
	}
}

func (s *Server) handleDelete(c *collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		s.mu.Lock()
		found := c.table.delete(id)
		s.mu.Unlock()
		if !found {
			jsonError(w, c.notFound, http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleCreateProject accepts JSON or a multipart form whose "image" part
// becomes the project's media.
func (s *Server) handleCreateProject(c *collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			s.handleCreate(c)(w, r)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBody)
		if err := r.ParseMultipartForm(maxMultipartBody); err != nil {
			jsonError(w, "Invalid multipart body", http.StatusBadRequest)
			return
		}
		body := model.Record{}
		for k, vs := range r.MultipartForm.Value {
			if len(vs) > 0 {
				body[k] = vs[0]
			}
		}

		var image []byte
		var imageName string
		if file, header, err := r.FormFile("image"); err == nil {
			image, err = io.ReadAll(file)
			file.Close()
			if err != nil {
				jsonError(w, "Could not read image", http.StatusBadRequest)
				return
			}
			imageName = path.Base(header.Filename)
		}

		s.mu.Lock()
		if image != nil {
			name := strconv.FormatInt(c.table.next+1, 10) + "-" + imageName
			s.media[name] = image
			body["media_path"] = "/media/" + name
		}
		row := c.table.insert(c.normalize(body))
		s.mu.Unlock()

		writeJSON(w, http.StatusCreated, c.item(row))
	}
}

func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	content, ok := s.media[mux.Vars(r)["name"]]
	s.mu.Unlock()
	if !ok {
		jsonError(w, "Media not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(content))
	_, _ = w.Write(content)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	email := coerce.ToStr(body.Get("email"))
	password := coerce.ToStr(body.Get("password"))
	if strings.TrimSpace(email) == "" || password == "" {
		jsonError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, ok := s.authenticate(email, password)
	if !ok {
		jsonError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := s.issueToken(user.ID, user.Username, user.Email, user.Role)
	if err != nil {
		s.log.WithContext(r.Context()).WithError(err).Error("failed to sign token")
		jsonError(w, "Failed to issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, model.AuthResponseToWire(model.AuthResponse{Token: token, User: user}))
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	username := strings.TrimSpace(coerce.ToStr(body.Get("username")))
	email := strings.TrimSpace(coerce.ToStr(body.Get("email")))
	password := coerce.ToStr(body.Get("password"))
	if username == "" || email == "" || password == "" {
		jsonError(w, "Username, email and password are required", http.StatusBadRequest)
		return
	}

	user, err := s.createAccount(username, email, password, model.RoleUser, coerce.ToStr(body.Get("status"), "active"))
	switch {
	case errors.Is(err, errEmailTaken):
		jsonError(w, "Email already registered", http.StatusConflict)
		return
	case err != nil:
		s.log.WithContext(r.Context()).WithError(err).Error("signup failed")
		jsonError(w, "Failed to create account", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, data(model.UserToWire(user)))
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if coerce.ToNum(body.Get("paid_amount")) <= 0 {
		jsonError(w, "paid_amount must be positive", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	row := s.payments.insert(model.PaymentToWire(model.PaymentFromWire(body)))
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, data(row))
}

func (s *Server) handleGetAdminProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p := s.profile
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, data(model.AdminProfileToWire(p)))
}

func (s *Server) handleUpdateAdminProfile(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	p := model.AdminProfileFromWire(body)
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, data(model.AdminProfileToWire(p)))
}

func (s *Server) handleGetAdminSettings(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	st := s.settings
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, data(model.AdminSettingsToWire(st)))
}

func (s *Server) handleUpdateAdminSettings(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}
	st := model.AdminSettingsFromWire(body)
	s.mu.Lock()
	s.settings = st
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, data(model.AdminSettingsToWire(st)))
}

// handleAdminStats computes the dashboard tiles from the live tables.
func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	investors := make([]model.Investor, 0, s.investors.len())
	for _, row := range s.investors.list(nil) {
		investors = append(investors, model.InvestorFromWire(row))
	}
	investments := make([]model.Investment, 0, s.investments.len())
	for _, row := range s.investments.list(nil) {
		investments = append(investments, model.InvestmentFromWire(row))
	}
	projects := make([]model.Project, 0, s.projects.len())
	for _, row := range s.projects.list(nil) {
		projects = append(projects, model.ProjectFromWire(row))
	}
	s.mu.Unlock()

	stats := aggregate.DashboardStats(investors, investments, projects)
	out := make([]model.Record, 0, len(stats))
	for _, st := range stats {
		out = append(out, model.AdminStatToWire(st))
	}
	writeJSON(w, http.StatusOK, named("stats")(out))
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		jsonError(w, "Invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request) (model.Record, bool) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.UseNumber()
	var body map[string]any
	if err := dec.Decode(&body); err != nil || body == nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	return model.Record(body), true
}

// merge returns a copy of base overlaid with patch.
func merge(base, patch model.Record) model.Record {
	out := make(model.Record, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}
