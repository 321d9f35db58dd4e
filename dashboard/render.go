package dashboard

import (
	"strconv"

	"crmdash/orders"
)

const LoadingPlaceholder = "Loading orders..."

// Bar colors for the analytics chart.
const (
	ColorTotal     = "#3b82f6"
	ColorApproved  = "#f97316"
	ColorDelivered = "#22c55e"
)

// OrdersBranch is what the orders tab shows: the placeholder while loading,
// otherwise one row per order in the order received.
type OrdersBranch struct {
	Loading     bool
	Placeholder string
	Rows        []orders.Order
}

func (s Snapshot) OrdersBranch() OrdersBranch {
	if s.Loading {
		return OrdersBranch{Loading: true, Placeholder: LoadingPlaceholder}
	}
	return OrdersBranch{Rows: s.Orders}
}

type Card struct {
	Title   string
	Value   int
	Caption string
	Class   string
}

// AnalyticsBranch is the cards plus chart shown on the analytics tab.
type AnalyticsBranch struct {
	Cards []Card
	Chart Chart
}

// AnalyticsBranch returns nil until a summary has been loaded.
func (s Snapshot) AnalyticsBranch() *AnalyticsBranch {
	if s.Summary == nil {
		return nil
	}
	sum := s.Summary
	return &AnalyticsBranch{
		Cards: []Card{
			{Title: "Total Orders", Value: sum.TotalOrders, Caption: "📦 All orders", Class: "card-total"},
			{Title: "Approved", Value: sum.ApprovedOrders, Caption: "⏱ " + formatRate(sum.ApprovalRate) + "% of total", Class: "card-approved"},
			{Title: "Delivered", Value: sum.DeliveredOrders, Caption: "✅ " + formatRate(sum.DeliveryRate) + "% of total", Class: "card-delivered"},
		},
		Chart: NewChart([]Bar{
			{Name: "Total", Value: sum.TotalOrders, Color: ColorTotal},
			{Name: "Approved", Value: sum.ApprovedOrders, Color: ColorApproved},
			{Name: "Delivered", Value: sum.DeliveredOrders, Color: ColorDelivered},
		}),
	}
}

// formatRate prints a rate the shortest way that round-trips: 60, 66.67.
func formatRate(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
