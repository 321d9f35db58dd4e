package orders

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Number identifies an order. Upstreams send it as a JSON string or a bare
// number; both decode to the same textual form.
type Number string

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("order number: %w", err)
	}
	*n = Number(num.String())
	return nil
}

// Order is one fulfillment record as served by /orders.
type Order struct {
	Number               Number `json:"number"`
	Status               string `json:"status"`
	ItemsWithoutDelivery int    `json:"items_without_delivery"`
	TotalItems           int    `json:"total_items"`
}

// Summary is the aggregate snapshot served by /summary. Rates are percents.
type Summary struct {
	TotalOrders     int     `json:"total_orders"`
	ApprovedOrders  int     `json:"approved_orders"`
	DeliveredOrders int     `json:"delivered_orders"`
	ApprovalRate    float64 `json:"approval_rate"`
	DeliveryRate    float64 `json:"delivery_rate"`
}

// ListResponse is the /orders body.
type ListResponse struct {
	Orders []Order `json:"orders"`
}

// Default status sets used when deriving a Summary.
var (
	DefaultApprovedStatuses  = []string{"payoff", "assembling", "delivery", "complete", "return"}
	DefaultDeliveredStatuses = []string{"complete", "return"}
)
