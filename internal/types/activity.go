package types

import "time"

type Action string

const (
	CreatedAction       Action = "CREATED"
	UpdatedAction       Action = "UPDATED"
	StatusChangedAction Action = "STATUS_CHANGED"
	NoteAction          Action = "NOTE"
)

// ActivityEntry is an append-only audit row for an order.
type ActivityEntry struct {
	ID             int       `db:"id" json:"id"`
	OrderID        int       `db:"laundry_service_id" json:"laundry_service_id"`
	UserID         *int      `db:"user_id" json:"user_id"`
	Action         Action    `db:"action" json:"action"`
	PreviousStatus *Status   `db:"previous_status" json:"previous_status"`
	NewStatus      *Status   `db:"new_status" json:"new_status"`
	Description    string    `db:"description" json:"description"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Note is a free-text log attached to an order by a user.
type Note struct {
	ID              int       `db:"id" json:"id"`
	OrderID         int       `db:"laundry_service_id" json:"laundry_service_id"`
	Status          Status    `db:"status" json:"status"`
	Detail          string    `db:"detail" json:"detail"`
	CreatedByUserID *int      `db:"created_by_user_id" json:"created_by_user_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}
