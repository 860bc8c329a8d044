package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go-buildmart/middleware"
	"go-buildmart/models"
	"go-buildmart/utils"
)

const requestTimeout = 5 * time.Second

// requestContext bounds the database work of a handler.
func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}

// mustUser returns the authenticated user or writes a 401.
func mustUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.CurrentUser(r)
	if !ok {
		utils.WriteError(w, r, utils.Unauthorized("Not authorized"))
		return nil, false
	}
	return user, true
}

func queryFloat(r *http.Request, name string) *float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}
