package controllers

import (
	"context"
	"net/http"
	"time"

	"go-buildmart/utils"
)

// Pinger reports whether a backing service answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	Database Pinger
	Started  time.Time
}

// Health reports liveness and whether the database answers. It answers 200
// even when the database is down since the catalog can still be served.
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	db := "up"
	if err := hc.Database.Ping(ctx); err != nil {
		db = "down"
	}
	utils.OK(w, map[string]interface{}{
		"status":   "ok",
		"database": db,
		"uptime":   time.Since(hc.Started).Round(time.Second).String(),
	})
}
