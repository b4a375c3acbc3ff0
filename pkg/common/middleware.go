package common

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL is the fixed validity window for issued bearer tokens.
const TokenTTL = 24 * time.Hour

// Claims is the payload embedded in every bearer token: the wallet address
// and a snapshot of the roles held at issuance time. Role changes made after
// issuance take effect only once the token expires.
type Claims struct {
	WalletAddress string   `json:"walletAddress"`
	Roles         []string `json:"roles"`
	jwt.RegisteredClaims
}

// RoleSet returns the role snapshot as a set. Unknown role strings are
// dropped rather than failing the request.
func (c *Claims) RoleSet() RoleSet {
	s := make(RoleSet, len(c.Roles))
	for _, v := range c.Roles {
		if r, ok := ParseRole(v); ok {
			s[r] = struct{}{}
		}
	}
	return s
}

// Authenticator issues and verifies bearer tokens with a shared secret.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// IssueToken mints a signed token for the wallet carrying its current roles.
func (a *Authenticator) IssueToken(walletAddress string, roles RoleSet) (string, time.Time, error) {
	expiresAt := time.Now().Add(TokenTTL)
	claims := &Claims{
		WalletAddress: walletAddress,
		Roles:         roles.Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "marketplace-backend",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Authenticate verifies a token string and returns its claims. This is a pure
// function of the token and the secret; no store access happens here.
func (a *Authenticator) Authenticate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	return claims, nil
}

type contextKey int

const claimsKey contextKey = 0

// ClaimsFromContext returns the claims injected by AuthMiddleware.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// AuthMiddleware verifies the bearer token and injects claims into the
// request context.
func (a *Authenticator) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := a.Authenticate(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole enforces RBAC against the claims set by AuthMiddleware.
// Denial is terminal; there is nothing to retry.
func RequireRole(required RoleSet, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !Authorize(required, claims.RoleSet()) {
			http.Error(w, "Forbidden - Insufficient permissions", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}
