package session

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kaia-invest/kaia-core/internal/model"
)

// TokenDecoder extracts the embedded claims of a bearer credential.
type TokenDecoder interface {
	Decode(token string) (map[string]any, error)
}

// JWTDecoder reads JWT claims without verifying the signature. The client
// never holds the signing key; the server remains the verifier.
type JWTDecoder struct{}

var _ TokenDecoder = JWTDecoder{}

func (JWTDecoder) Decode(token string) (map[string]any, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return nil, fmt.Errorf("decode token: empty")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser(jwt.WithJSONNumber()).ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// profileFromClaims maps the claim names issued by the API onto a user
// record. Missing claims stay absent.
func profileFromClaims(claims map[string]any) model.Record {
	r := model.Record{}
	pick := func(dst string, names ...string) {
		for _, n := range names {
			if v, ok := claims[n]; ok && v != nil {
				r[dst] = v
				return
			}
		}
	}
	pick("id", "id", "user_id", "sub")
	pick("username", "username", "name")
	pick("email", "email")
	pick("role", "role")
	return r
}
