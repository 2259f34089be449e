package responses

import (
	"context"
	"encoding/json"
	"net/http"

	pkgerrors "github.com/supplyline-io/supplyline-backend/pkg/errors"
	"github.com/supplyline-io/supplyline-backend/pkg/logger"
)

// SuccessEnvelope wraps every successful payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire shape of a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every error payload.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// WriteSuccess writes data inside the standard envelope with status 200.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

// WriteSuccessStatus writes data inside the standard envelope with the
// given status code.
func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessEnvelope{Data: data})
}

// WriteError maps a service error onto the HTTP response. Typed errors keep
// their own message when the code is safe to expose; everything else gets the
// code's public message so internals never leak to clients.
func WriteError(ctx context.Context, w http.ResponseWriter, logg *logger.Logger, err error) {
	code := pkgerrors.CodeInternal
	message := ""
	var details any

	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
		meta := pkgerrors.MetadataFor(code)
		if meta.DetailsAllowed {
			details = typed.Details()
		}
		switch code {
		case pkgerrors.CodeValidation,
			pkgerrors.CodeNotFound,
			pkgerrors.CodeConflict,
			pkgerrors.CodeStateConflict,
			pkgerrors.CodeInsufficientStock,
			pkgerrors.CodeItemNotEditable,
			pkgerrors.CodeConcurrency:
			message = typed.Message()
		}
	}

	meta := pkgerrors.MetadataFor(code)
	if message == "" {
		message = meta.PublicMessage
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)
		lctx := logg.WithFields(ctx, map[string]any{
			"error_code":  string(code),
			"http_status": meta.HTTPStatus,
			"error_dump":  dump,
		})
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(lctx, "request failed", err)
		} else {
			logg.Warn(lctx, "request rejected")
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(meta.HTTPStatus)
	_ = json.NewEncoder(w).Encode(ErrorEnvelope{Error: APIError{
		Code:    string(code),
		Message: message,
		Details: details,
	}})
}
