package crm

import "crmdash/orders"

// ordersPage is one page of the RetailCRM orders listing. Only the fields the
// dashboard needs are decoded.
type ordersPage struct {
	Orders []rawOrder `json:"orders"`
}

type rawOrder struct {
	Number orders.Number `json:"number"`
	Status string        `json:"status"`
	Items  []rawItem     `json:"items"`
}

type rawItem struct {
	Offer rawOffer `json:"offer"`
}

type rawOffer struct {
	Name string `json:"name"`
}
