package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aryaduta/workhub-realtime/internal/domain"
)

// Authentication failures are fatal to the connection attempt and are never
// retried server-side; the client must reconnect with a fresh credential.
var (
	// ErrNoToken means the request carried no bearer token at all
	ErrNoToken = errors.New("no token presented")
	// ErrInvalidToken means the token was malformed, tampered, or expired
	ErrInvalidToken = errors.New("invalid token")
	// ErrUserNotFound means the token subject has no active account
	ErrUserNotFound = errors.New("user not found")
)

// Verifier turns a bearer credential presented at connection time into a
// verified Identity. Read-only: safe to retry and trivial to mock.
type Verifier struct {
	secret []byte
	store  AccountStore
	logger *slog.Logger
}

// NewVerifier creates a Verifier checking HMAC-signed JWTs against the
// given secret and resolving subjects through store
func NewVerifier(secret string, store AccountStore, logger *slog.Logger) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		store:  store,
		logger: logger.With(slog.String("component", "verifier")),
	}
}

// TokenFromRequest extracts the bearer token from the dedicated `token`
// query parameter or, failing that, the Authorization header
func TokenFromRequest(r *http.Request) (string, error) {
	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrNoToken
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header || token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

// SessionKey derives the stable cache key used to correlate a reconnect
// with the connection it replaces. Same credential, same key.
func SessionKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Verify authenticates the request and resolves its subject to an account.
// Returns ErrNoToken, ErrInvalidToken, or ErrUserNotFound on failure.
func (v *Verifier) Verify(ctx context.Context, r *http.Request) (domain.Identity, error) {
	tokenString, err := TokenFromRequest(r)
	if err != nil {
		return domain.Identity{}, err
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		v.logger.Debug("token rejected", slog.Any("error", err))
		return domain.Identity{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return domain.Identity{}, ErrInvalidToken
	}

	account, err := v.store.FindAccount(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return domain.Identity{}, ErrUserNotFound
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrUserNotFound, err)
	}
	if !account.Active {
		return domain.Identity{}, ErrUserNotFound
	}

	return domain.Identity{
		UserID: account.ID,
		Role:   account.Role,
		Email:  account.Email,
	}, nil
}

// FailureReason maps a verification error to the label used in logs,
// metrics, and the close reason sent to the client
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrNoToken):
		return "no_token"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	default:
		return "unauthorized"
	}
}
