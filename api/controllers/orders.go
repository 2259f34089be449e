package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/supplyline-io/supplyline-backend/api/responses"
	"github.com/supplyline-io/supplyline-backend/api/validators"
	"github.com/supplyline-io/supplyline-backend/internal/fulfillment"
	"github.com/supplyline-io/supplyline-backend/internal/orders"
	"github.com/supplyline-io/supplyline-backend/pkg/enums"
	pkgerrors "github.com/supplyline-io/supplyline-backend/pkg/errors"
	"github.com/supplyline-io/supplyline-backend/pkg/logger"
)

type orderItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type createOrderRequest struct {
	CustomerName  string             `json:"customer_name" validate:"required"`
	CustomerEmail string             `json:"customer_email" validate:"required,email"`
	Items         []orderItemRequest `json:"items" validate:"dive"`
}

type updateItemQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type transitionOrderRequest struct {
	Status string `json:"status" validate:"required"`
}

func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		items := make([]orders.OrderItemInput, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, orders.OrderItemInput{
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}
		order, err := svc.CreateOrder(r.Context(), orders.CreateOrderInput{
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			Items:         items,
		})
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		order, err := svc.GetOrder(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// ListOrders dispatches on query parameters: status, customer_email, or a
// recency window in days. Exactly one selector is required.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		switch {
		case query.Get("status") != "":
			status, err := enums.ParseOrderStatus(query.Get("status"))
			if err != nil {
				responses.WriteError(r.Context(), w, logg,
					pkgerrors.New(pkgerrors.CodeValidation, "invalid order status"))
				return
			}
			list, err := svc.ListOrdersByStatus(r.Context(), status)
			if err != nil {
				responses.WriteError(r.Context(), w, logg, err)
				return
			}
			responses.WriteSuccess(w, list)
		case query.Get("customer_email") != "":
			list, err := svc.ListOrdersByCustomerEmail(r.Context(), query.Get("customer_email"))
			if err != nil {
				responses.WriteError(r.Context(), w, logg, err)
				return
			}
			responses.WriteSuccess(w, list)
		case query.Get("days") != "":
			days, err := validators.ParseQueryInt(r, "days", 7, 1, 365)
			if err != nil {
				responses.WriteError(r.Context(), w, logg, err)
				return
			}
			list, err := svc.ListRecentOrders(r.Context(), time.Duration(days)*24*time.Hour)
			if err != nil {
				responses.WriteError(r.Context(), w, logg, err)
				return
			}
			responses.WriteSuccess(w, list)
		default:
			responses.WriteError(r.Context(), w, logg,
				pkgerrors.New(pkgerrors.CodeValidation, "one of status, customer_email or days is required"))
		}
	}
}

func DeleteOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		if err := svc.DeleteOrder(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func AddOrderItem(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		var req orderItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		order, err := svc.AddItem(r.Context(), orderID, orders.OrderItemInput{
			ProductID: req.ProductID,
			Quantity:  req.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func UpdateOrderItem(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		var req updateItemQuantityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		order, err := svc.UpdateItemQuantity(r.Context(), orderID, productID, req.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func RemoveOrderItem(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		order, err := svc.RemoveItem(r.Context(), orderID, productID)
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// TransitionOrderStatus moves the order through its lifecycle. Stock effects
// (commitment, reversal, tracking token) ride the same transaction.
func TransitionOrderStatus(svc fulfillment.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		var req transitionOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), w, logg, err)
			return
		}
		target, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), w, logg,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid order status"))
			return
		}
		ctx := logg.WithOrderID(r.Context(), orderID.String())
		order, err := svc.TransitionStatus(ctx, orderID, target)
		if err != nil {
			responses.WriteError(ctx, w, logg, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
