// Package queue defines message payloads exchanged over the message broker.
package queue

// OrderCreatedEvent is published when a diner order has been persisted and
// fulfilled by the factory. It contains enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type OrderCreatedEvent struct {
	OrderID     int64   `json:"order_id"`
	DinerID     int64   `json:"diner_id"`
	DinerEmail  string  `json:"diner_email"`
	FranchiseID int64   `json:"franchise_id"`
	StoreID     int64   `json:"store_id"`
	Pizzas      int     `json:"pizzas"`
	Total       float64 `json:"total"`
	CreatedAt   string  `json:"created_at"`
}
