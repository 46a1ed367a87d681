package shipments

type Shipment struct {
	ID              string `json:"id"`
	OrganizationID  string `json:"organization_id"`
	TrackingNumber  string `json:"tracking_number"`
	Carrier         string `json:"carrier"`
	PurchaseOrderID string `json:"purchase_order_id"`
	PONumber        string `json:"po_number,omitempty"`
	Notes           string `json:"notes,omitempty"`
	Status          string `json:"status"`
	ShippedAt       *int64 `json:"shipped_at,omitempty"`
	ActualArrival   *int64 `json:"actual_arrival,omitempty"`
	CreatedBy       string `json:"created_by"`
	CreatedAt       int64  `json:"created_at"`
	UpdatedAt       int64  `json:"updated_at"`
}

const (
	StatusPending   = "pending"
	StatusInTransit = "in_transit"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

var transitions = map[string][]string{
	StatusPending:   {StatusInTransit, StatusCancelled},
	StatusInTransit: {StatusDelivered, StatusCancelled},
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
