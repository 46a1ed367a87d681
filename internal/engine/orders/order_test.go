package orders

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"Draft To Submitted", StatusDraft, StatusSubmitted, true},
		{"Draft To Cancelled", StatusDraft, StatusCancelled, true},
		{"Draft To Approved", StatusDraft, StatusApproved, false},
		{"Draft To Received", StatusDraft, StatusReceived, false},
		{"Submitted To Approved", StatusSubmitted, StatusApproved, true},
		{"Submitted To Rejected", StatusSubmitted, StatusRejected, true},
		{"Submitted To Received", StatusSubmitted, StatusReceived, false},
		{"Approved To Received", StatusApproved, StatusReceived, true},
		{"Approved To Cancelled", StatusApproved, StatusCancelled, true},
		{"Approved To Submitted", StatusApproved, StatusSubmitted, false},
		{"Rejected Is Terminal", StatusRejected, StatusSubmitted, false},
		{"Received Is Terminal", StatusReceived, StatusCancelled, false},
		{"Cancelled Is Terminal", StatusCancelled, StatusDraft, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.allowed {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.allowed)
			}
		})
	}
}

func TestIsTerminal(t *testing.T) {
	for _, status := range []string{StatusRejected, StatusReceived, StatusCancelled} {
		if !IsTerminal(status) {
			t.Errorf("Expected %s to be terminal", status)
		}
	}
	for _, status := range []string{StatusDraft, StatusSubmitted, StatusApproved} {
		if IsTerminal(status) {
			t.Errorf("Expected %s not to be terminal", status)
		}
	}
}

func TestTotalOf(t *testing.T) {
	items := []*Item{
		{SKU: "WID-1", Quantity: 10, UnitCost: decimal.RequireFromString("5.00")},
		{SKU: "WID-2", Quantity: 3, UnitCost: decimal.RequireFromString("19.99")},
	}

	total := TotalOf(items)
	if !total.Equal(decimal.RequireFromString("109.97")) {
		t.Errorf("Expected total 109.97, got %s", total.String())
	}

	if !TotalOf(nil).Equal(decimal.Zero) {
		t.Errorf("Expected empty order to total zero")
	}
}
