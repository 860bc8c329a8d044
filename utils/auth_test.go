package utils

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"go-buildmart/models"
)

func TestGenerateAndParseJWT(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID(), Email: "a@b.c", Role: models.RolePrimary}
	token, err := GenerateJWT(u)
	require.NoError(t, err)

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.UserID)
	assert.Equal(t, models.RolePrimary, claims.Role)
}

func TestParseJWTRejectsForeignAndExpiredTokens(t *testing.T) {
	u := &models.User{ID: primitive.NewObjectID()}

	defer func(k []byte) { JwtKey = k }(JwtKey)
	token, err := GenerateJWT(u)
	require.NoError(t, err)
	JwtKey = []byte("another-secret")
	_, err = ParseJWT(token)
	assert.Error(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		UserID:         u.ID.Hex(),
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(-time.Minute).Unix()},
	})
	signed, err := expired.SignedString(JwtKey)
	require.NoError(t, err)
	_, err = ParseJWT(signed)
	assert.Error(t, err)

	_, err = ParseJWT("not.a.token")
	assert.Error(t, err)
}
