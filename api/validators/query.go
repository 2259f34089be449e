package validators

import (
	"net/http"
	"strconv"

	pkgerrors "github.com/supplyline-io/supplyline-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter, falling back to
// def when absent and rejecting values outside [min, max].
func ParseQueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" must be an integer")
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, key+" is out of range").
			WithDetails(map[string]any{"min": min, "max": max})
	}
	return value, nil
}
