package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-buildmart/models"
	"go-buildmart/repository"
	"go-buildmart/utils"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	if u, ok := CurrentUser(r); ok {
		w.Header().Set("X-User", u.Email)
	}
	w.Header().Set("X-Role", string(RoleOf(r)))
	w.WriteHeader(http.StatusOK)
}

func setup(t *testing.T) (*Authenticator, *models.User, *models.User) {
	t.Helper()
	store, _ := repository.NewMemoryStore()
	ctx := context.Background()
	customer := &models.User{Email: "c@example.com", Role: models.RoleSecondary, IsActive: true}
	admin := &models.User{Email: "a@example.com", Role: models.RoleAdmin, IsActive: true}
	require.NoError(t, store.Users.Create(ctx, customer))
	require.NoError(t, store.Users.Create(ctx, admin))
	return NewAuthenticator(store.Users), customer, admin
}

func request(t *testing.T, h http.Handler, u *models.User) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if u != nil {
		token, err := utils.GenerateJWT(u)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticateToken(t *testing.T) {
	auth, customer, _ := setup(t)
	h := auth.AuthenticateToken(http.HandlerFunc(okHandler))

	assert.Equal(t, http.StatusUnauthorized, request(t, h, nil).Code)

	rec := request(t, h, customer)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "c@example.com", rec.Header().Get("X-User"))
	assert.Equal(t, "secondary", rec.Header().Get("X-Role"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateTokenUsesStoredRole(t *testing.T) {
	auth, customer, _ := setup(t)
	forged := *customer
	forged.Role = models.RoleAdmin
	h := auth.AuthenticateToken(RequireAdmin(http.HandlerFunc(okHandler)))

	assert.Equal(t, http.StatusForbidden, request(t, h, &forged).Code)
}

func TestAuthenticateTokenUnknownUser(t *testing.T) {
	auth, _, _ := setup(t)
	ghost := &models.User{Email: "ghost@example.com"}
	h := auth.AuthenticateToken(http.HandlerFunc(okHandler))
	assert.Equal(t, http.StatusUnauthorized, request(t, h, ghost).Code)
}

func TestRequireAdmin(t *testing.T) {
	auth, customer, admin := setup(t)
	h := auth.AuthenticateToken(RequireAdmin(http.HandlerFunc(okHandler)))

	assert.Equal(t, http.StatusForbidden, request(t, h, customer).Code)
	assert.Equal(t, http.StatusOK, request(t, h, admin).Code)
	assert.Equal(t, http.StatusUnauthorized, request(t, RequireAdmin(http.HandlerFunc(okHandler)), nil).Code)
}

func TestOptionalAuth(t *testing.T) {
	auth, customer, _ := setup(t)
	h := auth.OptionalAuth(http.HandlerFunc(okHandler))

	rec := request(t, h, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "registered", rec.Header().Get("X-Role"))

	rec = request(t, h, customer)
	assert.Equal(t, "c@example.com", rec.Header().Get("X-User"))
}
