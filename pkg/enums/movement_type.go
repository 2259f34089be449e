package enums

import "fmt"

// MovementType classifies a stock movement. Values map to the movement_type
// enum in Postgres.
type MovementType string

const (
	MovementTypePurchase      MovementType = "purchase"
	MovementTypeSale          MovementType = "sale"
	MovementTypeAdjustment    MovementType = "adjustment"
	MovementTypeReturn        MovementType = "return"
	MovementTypeCustomerOrder MovementType = "customer_order"
	MovementTypeSupplierOrder MovementType = "supplier_order"
)

var validMovementTypes = []MovementType{
	MovementTypePurchase,
	MovementTypeSale,
	MovementTypeAdjustment,
	MovementTypeReturn,
	MovementTypeCustomerOrder,
	MovementTypeSupplierOrder,
}

// String implements fmt.Stringer.
func (m MovementType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementType.
func (m MovementType) IsValid() bool {
	for _, candidate := range validMovementTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementType converts raw input into a MovementType.
func ParseMovementType(value string) (MovementType, error) {
	for _, candidate := range validMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement type %q", value)
}
