package orders

import (
	"github.com/shopspring/decimal"
)

type PurchaseOrder struct {
	ID             string  `json:"id"`
	OrganizationID string  `json:"organization_id"`
	PONumber       string  `json:"po_number"`
	SupplierID     string  `json:"supplier_id,omitempty"`
	SupplierName   string  `json:"supplier_name,omitempty"`
	CreatedBy      string  `json:"created_by"`
	TotalCost      decimal.Decimal `json:"total_cost"`
	Status         string  `json:"status"`
	ApprovedBy     string  `json:"approved_by,omitempty"`
	CreatedAt      int64   `json:"created_at"`
	UpdatedAt      int64   `json:"updated_at"`

	Items []*Item `json:"items,omitempty"`
}

type Item struct {
	ID              string          `json:"id"`
	PurchaseOrderID string          `json:"purchase_order_id"`
	SKU             string          `json:"sku"`
	Quantity        int64           `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
}

const (
	StatusDraft     = "draft"
	StatusSubmitted = "submitted"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusReceived  = "received"
	StatusCancelled = "cancelled"
)

// transitions lists every legal status move. rejected, received and
// cancelled are terminal.
var transitions = map[string][]string{
	StatusDraft:     {StatusSubmitted, StatusCancelled},
	StatusSubmitted: {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusReceived, StatusCancelled},
}

func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func IsTerminal(status string) bool {
	return len(transitions[status]) == 0
}

// Subtotal is quantity × unit cost for one line item.
func (i *Item) Subtotal() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(i.Quantity))
}

// TotalOf sums line-item subtotals. An order with no items totals zero.
func TotalOf(items []*Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
