package types

import "time"

type Status string

const (
	PendingStatus          Status = "PENDING"
	StartedStatus          Status = "STARTED"
	InProgressStatus       Status = "IN_PROGRESS"
	ReadyForDeliveryStatus Status = "READY_FOR_DELIVERY"
	DeliveredStatus        Status = "DELIVERED"
	CancelledStatus        Status = "CANCELLED"
)

// Statuses is the fixed status set, sorted.
var Statuses = []Status{
	CancelledStatus,
	DeliveredStatus,
	InProgressStatus,
	PendingStatus,
	ReadyForDeliveryStatus,
	StartedStatus,
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

type ServiceLabel string

const (
	NormalLabel  ServiceLabel = "NORMAL"
	ExpressLabel ServiceLabel = "EXPRESS"
)

func (l ServiceLabel) Valid() bool {
	return l == NormalLabel || l == ExpressLabel
}

// Order is one laundry service job. PendingOrder is set exactly when Status is PENDING.
type Order struct {
	ID                int          `db:"id" json:"id"`
	ClientID          int          `db:"client_id" json:"client_id"`
	ClientAddressID   int          `db:"client_address_id" json:"client_address_id"`
	ScheduledPickupAt time.Time    `db:"scheduled_pickup_at" json:"scheduled_pickup_at"`
	Status            Status       `db:"status" json:"status"`
	ServiceLabel      ServiceLabel `db:"service_label" json:"service_label"`
	PendingOrder      *int         `db:"pending_order" json:"pending_order"`
	TransactionID     *int         `db:"transaction_id" json:"transaction_id"`
	Detail            *string      `db:"detail" json:"detail"`
	CreatedByUserID   int          `db:"created_by_user_id" json:"created_by_user_id"`
	CreatedAt         time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at" json:"updated_at"`
}

// QueueItem is the compact queue row with its client, address and creator resolved.
type QueueItem struct {
	ID                int          `db:"id" json:"id"`
	Status            Status       `db:"status" json:"status"`
	ServiceLabel      ServiceLabel `db:"service_label" json:"service_label"`
	PendingOrder      *int         `db:"pending_order" json:"pending_order"`
	ScheduledPickupAt time.Time    `db:"scheduled_pickup_at" json:"scheduled_pickup_at"`
	ClientID          int          `db:"client_id" json:"client_id"`
	ClientName        string       `db:"client_name" json:"client_name"`
	ClientAddressID   int          `db:"client_address_id" json:"client_address_id"`
	AddressText       string       `db:"address_text" json:"address_text"`
	CreatedByUserID   int          `db:"created_by_user_id" json:"created_by_user_id"`
	CreatedByUsername string       `db:"created_by_username" json:"created_by_username"`
	CurrentStep       *StepType    `db:"current_step" json:"current_step"`
}

// NewOrder is the input of an order creation. A blank status means PENDING.
type NewOrder struct {
	ClientID          int          `json:"client_id"`
	ClientAddressID   int          `json:"client_address_id"`
	ScheduledPickupAt time.Time    `json:"scheduled_pickup_at"`
	Status            Status       `json:"status"`
	ServiceLabel      ServiceLabel `json:"service_label"`
	TransactionID     *int         `json:"transaction_id"`
	Detail            *string      `json:"detail"`
}

// OrderPatch carries the fields of a partial order update. Nil means unchanged.
type OrderPatch struct {
	ClientID          *int          `json:"client_id"`
	ClientAddressID   *int          `json:"client_address_id"`
	ScheduledPickupAt *time.Time    `json:"scheduled_pickup_at"`
	Status            *Status       `json:"status"`
	ServiceLabel      *ServiceLabel `json:"service_label"`
	TransactionID     *int          `json:"transaction_id"`
	Detail            *string       `json:"detail"`
}

// OrderChange is a committed order mutation with the status the order had before it.
type OrderChange struct {
	Order          Order
	PreviousStatus Status
}

// OrderRank is the locking projection used while reordering.
type OrderRank struct {
	ID           int    `db:"id"`
	Status       Status `db:"status"`
	PendingOrder *int   `db:"pending_order"`
}

type OrderFilter struct {
	Status   Status
	ClientID int
	From     *time.Time
	To       *time.Time
	Page     int
	PerPage  int
}

type Page[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Pages   int `json:"pages"`
}

func NewPage[T any](items []T, total, page, perPage int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 1
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return Page[T]{Items: items, Total: total, Page: page, PerPage: perPage, Pages: pages}
}

// CompactFilter selects and sorts the compact order listing. SortMode wins
// over SortBy when both are set.
type CompactFilter struct {
	Status   Status
	ClientID int
	SortMode string
	SortBy   string
	SortDir  string
	Page     int
	PerPage  int
}
