package middleware

import (
	"net/http"
	"strings"

	"github.com/leadpay/earnings/internal/domain"
	"github.com/leadpay/earnings/internal/infrastructure/auth"
)

// Authenticator establishes the caller identity for the user-facing API.
// With a JWT manager configured, a Bearer token is required; without one, the
// service trusts the X-User-ID header set by the upstream gateway.
type Authenticator struct {
	jwtManager *auth.JWTManager
}

// NewAuthenticator creates a new Authenticator. jwtManager may be nil, which
// enables the trusted-header mode.
func NewAuthenticator(jwtManager *auth.JWTManager) *Authenticator {
	return &Authenticator{jwtManager: jwtManager}
}

// Wrap wraps an http.Handler with authentication.
func (a *Authenticator) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.identify(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(domain.ContextWithUser(r.Context(), user)))
	})
}

func (a *Authenticator) identify(r *http.Request) (*domain.User, error) {
	if a.jwtManager == nil {
		userID := r.Header.Get("X-User-ID")
		if userID == "" {
			return nil, domain.ErrUnauthorized
		}

		role := domain.Role(r.Header.Get("X-User-Role"))
		if role != domain.RoleAdmin && role != domain.RoleOperator {
			role = domain.RoleUser
		}

		return &domain.User{ID: userID, Role: role}, nil
	}

	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, domain.ErrUnauthorized
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, domain.ErrInvalidToken
	}

	claims, err := a.jwtManager.Verify(parts[1])
	if err != nil {
		return nil, err
	}

	return &domain.User{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

// RequireRole gates a route subtree on a minimum role. Admins pass every
// check; operators pass operator checks.
func RequireRole(minRole domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := domain.UserFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			switch minRole {
			case domain.RoleAdmin:
				if user.Role != domain.RoleAdmin {
					http.Error(w, "insufficient permissions", http.StatusForbidden)
					return
				}
			case domain.RoleOperator:
				if user.Role != domain.RoleAdmin && user.Role != domain.RoleOperator {
					http.Error(w, "insufficient permissions", http.StatusForbidden)
					return
				}
			case domain.RoleUser:
				// Any authenticated caller.
			}

			next.ServeHTTP(w, r)
		})
	}
}
