package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/supplyline-io/supplyline-backend/api/responses"
	pkgerrors "github.com/supplyline-io/supplyline-backend/pkg/errors"
	"github.com/supplyline-io/supplyline-backend/pkg/logger"
)

type dbPinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness only.
func HealthLive(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"status": "ok",
			"env":    env,
		})
	}
}

// HealthReady reports readiness, which requires a reachable database.
func HealthReady(env string, db dbPinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			responses.WriteError(r.Context(), w, logg,
				pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"status": "ready",
			"env":    env,
		})
	}
}
