package types

import "time"

type StepType string

const (
	WashingStep     StepType = "LAVADO"
	IroningStep     StepType = "PLANCHADO"
	WashAndIronStep StepType = "AMBOS"
)

func (s StepType) Valid() bool {
	return s == WashingStep || s == IroningStep || s == WashAndIronStep
}

// ProcessingStep is one washing or ironing pass over an order.
type ProcessingStep struct {
	ID                int        `db:"id" json:"id"`
	OrderID           int        `db:"laundry_service_id" json:"laundry_service_id"`
	StepType          StepType   `db:"step_type" json:"step_type"`
	StartedByUserID   int        `db:"started_by_user_id" json:"started_by_user_id"`
	CompletedByUserID *int       `db:"completed_by_user_id" json:"completed_by_user_id"`
	StartedAt         time.Time  `db:"started_at" json:"started_at"`
	CompletedAt       *time.Time `db:"completed_at" json:"completed_at"`
	Notes             *string    `db:"notes" json:"notes"`
}

type NewProcessingStep struct {
	OrderID  int      `json:"laundry_service_id"`
	StepType StepType `json:"step_type"`
	Notes    *string  `json:"notes"`
}

type ProcessingStepPatch struct {
	StepType *StepType `json:"step_type"`
	Notes    *string   `json:"notes"`
}

// StepChange is a committed step mutation with the status of its order.
type StepChange struct {
	Step        ProcessingStep
	OrderStatus Status
}

type StepFilter struct {
	OrderID  int
	StepType StepType
	Page     int
	PerPage  int
}

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryCancelled DeliveryStatus = "CANCELLED"
)

func (s DeliveryStatus) Valid() bool {
	return s == DeliveryPending || s == DeliveryDelivered || s == DeliveryCancelled
}

type Delivery struct {
	ID                  int            `db:"id" json:"id"`
	OrderID             int            `db:"laundry_service_id" json:"laundry_service_id"`
	CreatedByUserID     int            `db:"created_by_user_id" json:"created_by_user_id"`
	AssignedToUserID    *int           `db:"assigned_to_user_id" json:"assigned_to_user_id"`
	ScheduledDeliveryAt time.Time      `db:"scheduled_delivery_at" json:"scheduled_delivery_at"`
	DeliveredAt         *time.Time     `db:"delivered_at" json:"delivered_at"`
	Status              DeliveryStatus `db:"status" json:"status"`
	CancelNote          *string        `db:"cancel_note" json:"cancel_note"`
	CreatedAt           time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at" json:"updated_at"`
}

type DeliveryPatch struct {
	OrderID             *int       `json:"laundry_service_id"`
	AssignedToUserID    *int       `json:"assigned_to_user_id"`
	ScheduledDeliveryAt *time.Time `json:"scheduled_delivery_at"`
	DeliveredAt         *time.Time `json:"delivered_at"`
	CancelNote          *string    `json:"cancel_note"`
}

type DeliveryFilter struct {
	OrderID int
	Status  DeliveryStatus
	From    *time.Time
	To      *time.Time
	Page    int
	PerPage int
}

type Task struct {
	ID            int       `db:"id" json:"id"`
	UserID        int       `db:"user_id" json:"user_id"`
	WorkSessionID *int      `db:"work_session_id" json:"work_session_id"`
	Description   string    `db:"description" json:"description"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type TaskPatch struct {
	UserID      *int    `json:"user_id"`
	Description *string `json:"description"`
}

type TaskView struct {
	ID       int       `db:"id" json:"id"`
	TaskID   int       `db:"task_id" json:"task_id"`
	UserID   int       `db:"user_id" json:"user_id"`
	ViewedAt time.Time `db:"viewed_at" json:"viewed_at"`
}

// Menu is a navigation entry. Children is filled only by BuildMenuTree.
type Menu struct {
	ID            int    `db:"id" json:"id"`
	Label         string `db:"label" json:"label"`
	Path          string `db:"path" json:"path"`
	ShowInSidebar bool   `db:"show_in_sidebar" json:"show_in_sidebar"`
	Order         int    `db:"sort_order" json:"order"`
	ParentID      *int   `db:"parent_id" json:"parent_id"`

	Children []Menu `db:"-" json:"children"`
}

type MenuPatch struct {
	Label         *string `json:"label"`
	Path          *string `json:"path"`
	ShowInSidebar *bool   `json:"show_in_sidebar"`
	Order         *int    `json:"order"`
	ParentID      *int    `json:"parent_id"`
}

// BuildMenuTree nests menus under their parents, keeping the input order
// among siblings. A menu whose parent is not in the list becomes a root.
func BuildMenuTree(flat []Menu) []Menu {
	present := make(map[int]bool, len(flat))
	children := make(map[int][]Menu)
	for _, m := range flat {
		present[m.ID] = true
	}
	var roots []Menu
	for _, m := range flat {
		if m.ParentID != nil && present[*m.ParentID] && *m.ParentID != m.ID {
			children[*m.ParentID] = append(children[*m.ParentID], m)
			continue
		}
		roots = append(roots, m)
	}

	var attach func(m Menu, seen map[int]bool) Menu
	attach = func(m Menu, seen map[int]bool) Menu {
		seen[m.ID] = true
		m.Children = []Menu{}
		for _, c := range children[m.ID] {
			if seen[c.ID] {
				continue
			}
			m.Children = append(m.Children, attach(c, seen))
		}
		return m
	}

	out := make([]Menu, 0, len(roots))
	for _, r := range roots {
		out = append(out, attach(r, map[int]bool{}))
	}
	return out
}
