package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupBody struct {
	Email string `json:"email" validate:"required,email"`
}

func (b *signupBody) Normalize() {
	b.Email = strings.ToLower(strings.TrimSpace(b.Email))
}

func TestDecodeJSONNormalizesBeforeValidating(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"  Ravi@Example.COM "}`))
	var body signupBody
	require.NoError(t, DecodeJSON(req, &body))
	assert.Equal(t, "ravi@example.com", body.Email)
}

func TestDecodeJSONRejectsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var body signupBody
	err := DecodeJSON(req, &body)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, Classify(err).Status)
}
