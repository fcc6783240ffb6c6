package domain

import "time"

// OrderStatus tracks the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// DomainStatusAfter returns the status the ordered domain moves to when an
// order enters s.
func (s OrderStatus) DomainStatusAfter() DomainStatus {
	switch s {
	case OrderStatusPaid, OrderStatusCompleted:
		return DomainStatusSold
	case OrderStatusCancelled:
		return DomainStatusAvailable
	default:
		return DomainStatusReserved
	}
}

// CanMoveTo reports whether an order in s may transition to next.
func (s OrderStatus) CanMoveTo(next OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return next == OrderStatusPaid || next == OrderStatusCancelled || next == OrderStatusCompleted
	case OrderStatusPaid:
		return next == OrderStatusCompleted || next == OrderStatusCancelled
	default:
		return false
	}
}

// Order is a user's purchase of a single domain.
type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	UserEmail   string      `json:"user_email,omitempty"`
	DomainID    string      `json:"domain_id"`
	DomainName  string      `json:"domain_name"`
	AmountCents int64       `json:"amount_cents"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
