package controllers

import (
	"net/http"

	"github.com/supplyline-io/supplyline-backend/api/responses"
	"github.com/supplyline-io/supplyline-backend/api/validators"
	"github.com/supplyline-io/supplyline-backend/internal/reorder"
	"github.com/supplyline-io/supplyline-backend/pkg/logger"
)

// ListReorderCandidates returns products below their reorder threshold,
// most depleted first.
func ListReorderCandidates(advisor reorder.Advisor, defaultLimit int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", defaultLimit, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		candidates, err := advisor.ListReorderCandidates(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, candidates)
	}
}
