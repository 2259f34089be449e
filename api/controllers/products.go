package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/supplyline-io/supplyline-backend/api/responses"
	"github.com/supplyline-io/supplyline-backend/api/validators"
	"github.com/supplyline-io/supplyline-backend/internal/catalog"
	pkgerrors "github.com/supplyline-io/supplyline-backend/pkg/errors"
	"github.com/supplyline-io/supplyline-backend/pkg/logger"
)

type createProductRequest struct {
	SKU              string          `json:"sku" validate:"required"`
	Name             string          `json:"name" validate:"required"`
	Description      *string         `json:"description"`
	UnitPrice        decimal.Decimal `json:"unit_price" validate:"required"`
	ReorderThreshold int             `json:"reorder_threshold" validate:"gte=0"`
}

type updateProductRequest struct {
	Name             *string          `json:"name"`
	Description      *string          `json:"description"`
	UnitPrice        *decimal.Decimal `json:"unit_price"`
	ReorderThreshold *int             `json:"reorder_threshold"`
}

// CreateProduct registers a product; its stock row is created alongside.
func CreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		product, err := svc.CreateProduct(r.Context(), catalog.CreateProductInput{
			SKU:              req.SKU,
			Name:             req.Name,
			Description:      req.Description,
			UnitPrice:        req.UnitPrice,
			ReorderThreshold: req.ReorderThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func GetProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func GetProductBySKU(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.GetProductBySKU(r.Context(), chi.URLParam(r, "sku"))
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		products, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, products)
	}
}

func UpdateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		var req updateProductRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		product, err := svc.UpdateProduct(r.Context(), productID, catalog.UpdateProductInput{
			Name:             req.Name,
			Description:      req.Description,
			UnitPrice:        req.UnitPrice,
			ReorderThreshold: req.ReorderThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func DeleteProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	value, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a valid uuid")
	}
	return value, nil
}
