package enums

import "testing"

func TestOrderStatusTransitionTable(t *testing.T) {
	legal := map[OrderStatus][]OrderStatus{
		OrderStatusPending:    {OrderStatusProcessing, OrderStatusPaid, OrderStatusCancelled},
		OrderStatusPaid:       {OrderStatusProcessing, OrderStatusShipped, OrderStatusCancelled},
		OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
		OrderStatusShipped:    {OrderStatusDelivered},
		OrderStatusDelivered:  {},
		OrderStatusCancelled:  {},
	}

	for _, from := range validOrderStatuses {
		allowed := map[OrderStatus]bool{}
		for _, to := range legal[from] {
			allowed[to] = true
		}
		for _, to := range validOrderStatuses {
			if got := from.CanTransitionTo(to); got != allowed[to] {
				t.Fatalf("%s -> %s: expected %v, got %v", from, to, allowed[to], got)
			}
		}
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusDelivered, OrderStatusCancelled} {
		if !s.IsTerminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusPaid, OrderStatusProcessing, OrderStatusShipped} {
		if s.IsTerminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
	if OrderStatus("bogus").IsTerminal() {
		t.Fatal("unknown status must not report terminal")
	}
}

func TestParseMovementType(t *testing.T) {
	for _, raw := range []string{"purchase", "sale", "adjustment", "return", "customer_order", "supplier_order"} {
		mt, err := ParseMovementType(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if mt.String() != raw {
			t.Fatalf("round trip mismatch for %q", raw)
		}
	}
	if _, err := ParseMovementType("waste"); err == nil {
		t.Fatal("expected error for unknown movement type")
	}
}

func TestSupplierOrderStatusTransitions(t *testing.T) {
	if !SupplierOrderStatusPlaced.CanTransitionTo(SupplierOrderStatusReceived) {
		t.Fatal("placed -> received should be legal")
	}
	if SupplierOrderStatusCompleted.CanTransitionTo(SupplierOrderStatusPending) {
		t.Fatal("completed is terminal")
	}
	if SupplierOrderStatusReceived.CanTransitionTo(SupplierOrderStatusCancelled) {
		t.Fatal("received orders can only complete")
	}
}
