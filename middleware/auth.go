package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go-buildmart/models"
	"go-buildmart/repository"
	"go-buildmart/utils"
)

// Key type for context
type contextKey string

const UserContextKey = contextKey("user")

// Authenticator resolves bearer tokens to stored users.
type Authenticator struct {
	Users repository.UserRepository
}

func NewAuthenticator(users repository.UserRepository) *Authenticator {
	return &Authenticator{Users: users}
}

func bearer(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", utils.Unauthorized("Not authorized, no token")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", utils.Unauthorized("Invalid Authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// resolve loads the user named by the request's token. The role always
// comes from the stored user, never from the token.
func (a *Authenticator) resolve(r *http.Request) (*models.User, error) {
	tokenStr, err := bearer(r)
	if err != nil {
		return nil, err
	}
	claims, err := utils.ParseJWT(tokenStr)
	if err != nil {
		return nil, utils.Unauthorized("Not authorized, token failed")
	}
	id, err := repository.ParseID(claims.UserID)
	if err != nil {
		return nil, utils.Unauthorized("Not authorized, token failed")
	}
	user, err := a.Users.FindByID(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.Unauthorized("User no longer exists")
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, utils.Unauthorized("Account is deactivated")
	}
	return user, nil
}

// AuthenticateToken rejects requests without a valid bearer token and
// attaches the user to the context.
func (a *Authenticator) AuthenticateToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.resolve(r)
		if err != nil {
			utils.WriteError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// OptionalAuth attaches the user when a valid token is present and
// otherwise lets the request through as a guest.
func (a *Authenticator) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			if user, err := a.resolve(r); err == nil {
				r = r.WithContext(WithUser(r.Context(), user))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin must run after AuthenticateToken.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := CurrentUser(r)
		if !ok {
			utils.WriteError(w, r, utils.Unauthorized("Not authorized"))
			return
		}
		if !user.IsAdmin() {
			utils.WriteError(w, r, utils.Forbidden("Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, UserContextKey, u)
}

// CurrentUser returns the authenticated user, if any.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(UserContextKey).(*models.User)
	return u, ok && u != nil
}

// RoleOf is the pricing role of the request: the user's role, or
// registered for guests.
func RoleOf(r *http.Request) models.Role {
	if u, ok := CurrentUser(r); ok {
		return u.Role
	}
	return models.RoleRegistered
}
