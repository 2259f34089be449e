package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/supplyline-io/supplyline-backend/api/responses"
	"github.com/supplyline-io/supplyline-backend/api/validators"
	"github.com/supplyline-io/supplyline-backend/internal/suppliers"
	"github.com/supplyline-io/supplyline-backend/pkg/db/models"
	pkgerrors "github.com/supplyline-io/supplyline-backend/pkg/errors"
	"github.com/supplyline-io/supplyline-backend/pkg/logger"
)

type createSupplierRequest struct {
	Name          string  `json:"name" validate:"required"`
	ContactPerson *string `json:"contact_person"`
	Email         string  `json:"email" validate:"required,email"`
	Phone         *string `json:"phone"`
	Address       *string `json:"address"`
}

type supplierOrderItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required"`
}

type createSupplierOrderRequest struct {
	SupplierID       uuid.UUID                  `json:"supplier_id" validate:"required"`
	ExpectedDelivery *time.Time                 `json:"expected_delivery"`
	Items            []supplierOrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

func CreateSupplier(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSupplierRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		supplier, err := svc.CreateSupplier(r.Context(), suppliers.CreateSupplierInput{
			Name:          req.Name,
			ContactPerson: req.ContactPerson,
			Email:         req.Email,
			Phone:         req.Phone,
			Address:       req.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, supplier)
	}
}

func GetSupplier(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		supplierID, err := parseUUIDParam(r, "supplierId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		supplier, err := svc.GetSupplier(r.Context(), supplierID)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, supplier)
	}
}

func ListSuppliers(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListSuppliers(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func CreateSupplierOrder(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSupplierOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		items := make([]suppliers.SupplierOrderItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, suppliers.SupplierOrderItemInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
			})
		}
		order, err := svc.CreateSupplierOrder(r.Context(), suppliers.CreateSupplierOrderInput{
			SupplierID:       req.SupplierID,
			ExpectedDelivery: req.ExpectedDelivery,
			Items:            items,
		})
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func GetSupplierOrder(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "supplierOrderId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		order, err := svc.GetSupplierOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func ListSupplierOrders(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get("supplier_id")
		if raw == "" {
			responses.WriteError(r.Context(), w, logg,
				pkgerrors.New(pkgerrors.CodeValidation, "supplier_id is required"))
			return
		}
		supplierID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), w, logg,
				pkgerrors.New(pkgerrors.CodeValidation, "supplier_id must be a valid uuid"))
			return
		}
		list, err := svc.ListSupplierOrders(r.Context(), supplierID)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Lifecycle endpoints. Each one is a guarded transition; receive also books
// the delivered quantities into the stock ledger.

func PlaceSupplierOrder(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return supplierOrderTransition(svc.PlaceSupplierOrder, logg)
}

func ReceiveSupplierOrder(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return supplierOrderTransition(svc.ReceiveSupplierOrder, logg)
}

func CompleteSupplierOrder(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return supplierOrderTransition(svc.CompleteSupplierOrder, logg)
}

func CancelSupplierOrder(svc suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return supplierOrderTransition(svc.CancelSupplierOrder, logg)
}

func supplierOrderTransition(
	fn func(ctx context.Context, id uuid.UUID) (*models.SupplierOrder, error),
	logg *logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "supplierOrderId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		order, err := fn(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
