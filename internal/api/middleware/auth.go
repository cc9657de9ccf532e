package middleware

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"github.com/wonny/sectorwatch/internal/api/response"
	"github.com/wonny/sectorwatch/internal/pkg/reqctx"
)

// AuthConfig configures bearer token verification
type AuthConfig struct {
	Secret      []byte
	UserIDClaim string
}

// Auth verifies HS256 bearer tokens and stores the user id in the context.
// Requests without a valid token get 401.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	claim := cfg.UserIDClaim
	if claim == "" {
		claim = "user_id"
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				response.Unauthorized(w, r, "Authentication credentials were not provided")
				return
			}

			claims := jwt.MapClaims{}
			_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
				return cfg.Secret, nil
			})
			if err != nil {
				log.Debug().Err(err).Str("request_id", reqctx.RequestID(r.Context())).Msg("Token rejected")
				response.Unauthorized(w, r, "Invalid or expired token")
				return
			}

			userID, err := userIDFromClaim(claims[claim])
			if err != nil {
				response.Unauthorized(w, r, "Token has no valid "+claim+" claim")
				return
			}

			next.ServeHTTP(w, r.WithContext(reqctx.WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// userIDFromClaim accepts a JSON number or a numeric string
func userIDFromClaim(v interface{}) (int64, error) {
	switch id := v.(type) {
	case float64:
		if id != math.Trunc(id) || id <= 0 || id > math.MaxInt64 {
			return 0, fmt.Errorf("invalid user id %v", id)
		}
		return int64(id), nil
	case string:
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid user id %q", id)
		}
		return n, nil
	case nil:
		return 0, errors.New("missing user id")
	default:
		return 0, fmt.Errorf("unsupported user id type %T", v)
	}
}
