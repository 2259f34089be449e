package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/supplyline-io/supplyline-backend/api/responses"
	"github.com/supplyline-io/supplyline-backend/api/validators"
	"github.com/supplyline-io/supplyline-backend/internal/stockledger"
	"github.com/supplyline-io/supplyline-backend/pkg/db/models"
	"github.com/supplyline-io/supplyline-backend/pkg/enums"
	pkgerrors "github.com/supplyline-io/supplyline-backend/pkg/errors"
	"github.com/supplyline-io/supplyline-backend/pkg/logger"
	"github.com/supplyline-io/supplyline-backend/pkg/pagination"
)

type applyMovementRequest struct {
	ProductID   uuid.UUID  `json:"product_id" validate:"required"`
	Type        string     `json:"type" validate:"required"`
	Delta       int        `json:"delta" validate:"required"`
	ReferenceID *uuid.UUID `json:"reference_id"`
	Notes       *string    `json:"notes"`
}

type createAdjustmentRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Delta     int       `json:"delta" validate:"required"`
	Notes     string    `json:"notes" validate:"required"`
}

type movementPage struct {
	Movements  []models.StockMovement `json:"movements"`
	NextCursor string                 `json:"next_cursor,omitempty"`
}

func GetStock(svc stockledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		stock, err := svc.GetStock(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, stock)
	}
}

func GetStockBySKU(svc stockledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stock, err := svc.GetStockBySKU(r.Context(), chi.URLParam(r, "sku"))
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, stock)
	}
}

func ListOutOfStock(svc stockledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stocks, err := svc.ListOutOfStock(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, stocks)
	}
}

// ListMovements returns a cursor-paginated movement history, optionally
// filtered by product, type, reference and time window.
func ListMovements(svc stockledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := movementFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}
		movements, next, err := svc.ListMovements(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, movementPage{Movements: movements, NextCursor: next})
	}
}

// ApplyMovement appends one signed movement to the ledger.
func ApplyMovement(svc stockledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req applyMovementRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		movementType, err := enums.ParseMovementType(req.Type)
		if err != nil {
			responses.WriteError(r.Context(), w, logg,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type"))
			return
		}
		movement, err := svc.ApplyMovement(r.Context(), stockledger.MovementInput{
			ProductID:   req.ProductID,
			Type:        movementType,
			Delta:       req.Delta,
			ReferenceID: req.ReferenceID,
			Notes:       req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

// CreateAdjustment books a manual correction. Notes are mandatory.
func CreateAdjustment(svc stockledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAdjustmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		movement, err := svc.CreateAdjustment(r.Context(), stockledger.AdjustmentInput{
			ProductID: req.ProductID,
			Delta:     req.Delta,
			Notes:     &req.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, movement)
	}
}

func movementFilterFromQuery(r *http.Request) (stockledger.MovementFilter, error) {
	var filter stockledger.MovementFilter
	query := r.URL.Query()

	if raw := query.Get("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "product_id must be a valid uuid")
		}
		filter.ProductID = &id
	}
	if raw := query.Get("type"); raw != "" {
		movementType, err := enums.ParseMovementType(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type filter")
		}
		filter.Type = &movementType
	}
	if raw := query.Get("reference_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "reference_id must be a valid uuid")
		}
		filter.ReferenceID = &id
	}
	if raw := query.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "from must be an RFC3339 timestamp")
		}
		filter.From = &t
	}
	if raw := query.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "to must be an RFC3339 timestamp")
		}
		filter.To = &t
	}
	return filter, nil
}
