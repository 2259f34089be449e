package enums

import "fmt"

// SupplierOrderStatus tracks the lifecycle of a replenishment order.
type SupplierOrderStatus string

const (
	SupplierOrderStatusPending   SupplierOrderStatus = "pending"
	SupplierOrderStatusPlaced    SupplierOrderStatus = "placed"
	SupplierOrderStatusReceived  SupplierOrderStatus = "received"
	SupplierOrderStatusCompleted SupplierOrderStatus = "completed"
	SupplierOrderStatusCancelled SupplierOrderStatus = "cancelled"
)

var validSupplierOrderStatuses = []SupplierOrderStatus{
	SupplierOrderStatusPending,
	SupplierOrderStatusPlaced,
	SupplierOrderStatusReceived,
	SupplierOrderStatusCompleted,
	SupplierOrderStatusCancelled,
}

var legalSupplierOrderTransitions = map[SupplierOrderStatus][]SupplierOrderStatus{
	SupplierOrderStatusPending:   {SupplierOrderStatusPlaced, SupplierOrderStatusCancelled},
	SupplierOrderStatusPlaced:    {SupplierOrderStatusReceived, SupplierOrderStatusCancelled},
	SupplierOrderStatusReceived:  {SupplierOrderStatusCompleted},
	SupplierOrderStatusCompleted: {},
	SupplierOrderStatusCancelled: {},
}

// String implements fmt.Stringer.
func (s SupplierOrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SupplierOrderStatus.
func (s SupplierOrderStatus) IsValid() bool {
	for _, candidate := range validSupplierOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the target status is reachable from s in a
// single transition.
func (s SupplierOrderStatus) CanTransitionTo(target SupplierOrderStatus) bool {
	for _, candidate := range legalSupplierOrderTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseSupplierOrderStatus converts raw input into a SupplierOrderStatus.
func ParseSupplierOrderStatus(value string) (SupplierOrderStatus, error) {
	for _, candidate := range validSupplierOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid supplier order status %q", value)
}
