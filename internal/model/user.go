package model

import (
	"strings"
	"time"

	"github.com/kaia-invest/kaia-core/internal/coerce"
)

// Roles recognized by post-login routing.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an authenticated account.
type User struct {
	ID        int64
	Username  string
	Email     string
	Role      string
	Status    string
	LastLogin *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the user routes to the admin dashboard.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// UserFromWire decodes a user. Falsy role and status fall back to "user"
// and "active".
func UserFromWire(r Record) User {
	return User{
		ID:        coerce.ToInt(r.Get("id")),
		Username:  coerce.ToStr(r.Get("username")),
		Email:     coerce.ToStr(r.Get("email")),
		Role:      orDefault(r.Get("role"), RoleUser),
		Status:    orDefault(r.Get("status"), "active"),
		LastLogin: coerce.ToDate(r.Get("last_login")),
		CreatedAt: dateOrNow(r.Get("created_at")),
		UpdatedAt: dateOrNow(r.Get("updated_at")),
	}
}

// UserToWire encodes a user.
func UserToWire(u User) Record {
	r := Record{
		"id":       u.ID,
		"username": u.Username,
		"email":    u.Email,
		"role":     u.Role,
		"status":   u.Status,
	}
	putDate(r, "last_login", u.LastLogin)
	putTime(r, "created_at", u.CreatedAt)
	putTime(r, "updated_at", u.UpdatedAt)
	return r
}

// AuthRequest is the login payload.
type AuthRequest struct {
	Email    string
	Password string
}

// AuthRequestToWire trims the email; the password is sent verbatim.
func AuthRequestToWire(a AuthRequest) Record {
	return Record{
		"email":    strings.TrimSpace(a.Email),
		"password": a.Password,
	}
}

// SignupRequest is the account creation payload.
type SignupRequest struct {
	Username string
	Email    string
	Password string
	Status   string
}

// SignupRequestToWire omits status when it is empty.
func SignupRequestToWire(s SignupRequest) Record {
	r := Record{
		"username": strings.TrimSpace(s.Username),
		"email":    strings.TrimSpace(s.Email),
		"password": s.Password,
	}
	if s.Status != "" {
		r["status"] = s.Status
	}
	return r
}

// AuthResponse is what /u/login returns.
type AuthResponse struct {
	Token string
	User  User
}

// AuthResponseFromWire decodes a login response.
func AuthResponseFromWire(r Record) AuthResponse {
	return AuthResponse{
		Token: coerce.ToStr(r.Get("token")),
		User:  UserFromWire(r.Sub("user")),
	}
}

// AuthResponseToWire encodes a login response.
func AuthResponseToWire(a AuthResponse) Record {
	return Record{
		"token": a.Token,
		"user":  UserToWire(a.User),
	}
}

// orDefault mirrors a loose truthiness check: nil, "", 0 and false all
// select def.
func orDefault(v any, def string) string {
	switch x := v.(type) {
	case nil:
		return def
	case string:
		if x == "" {
			return def
		}
	case bool:
		if !x {
			return def
		}
	default:
		if s := coerce.ToStr(x); s == "0" {
			return def
		}
	}
	return coerce.ToStr(v)
}
