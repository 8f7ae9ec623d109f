package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type User struct {
	ID        int       `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	RoleID    int       `db:"role_id" json:"role_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Client struct {
	ID         int       `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Email      *string   `db:"email" json:"email"`
	DocumentID *string   `db:"document_id" json:"document_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`

	Addresses []Address `db:"-" json:"addresses,omitempty"`
	Phones    []Phone   `db:"-" json:"phones,omitempty"`
}

type Address struct {
	ID          int              `db:"id" json:"id"`
	ClientID    int              `db:"client_id" json:"client_id"`
	AddressText string           `db:"address_text" json:"address_text"`
	Latitude    *decimal.Decimal `db:"latitude" json:"latitude"`
	Longitude   *decimal.Decimal `db:"longitude" json:"longitude"`
	MapLink     *string          `db:"map_link" json:"map_link"`
	ImagePath   *string          `db:"image_path" json:"image_path"`
	IsPrimary   bool             `db:"is_primary" json:"is_primary"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// AddressPatch carries the fields of an address update. Nil means unchanged.
type AddressPatch struct {
	AddressText *string          `json:"address_text"`
	Latitude    *decimal.Decimal `json:"latitude"`
	Longitude   *decimal.Decimal `json:"longitude"`
	MapLink     *string          `json:"map_link"`
	ImagePath   *string          `json:"image_path"`
	IsPrimary   *bool            `json:"is_primary"`
}

type Phone struct {
	ID          int       `db:"id" json:"id"`
	ClientID    int       `db:"client_id" json:"client_id"`
	PhoneNumber string    `db:"phone_number" json:"phone_number"`
	Description *string   `db:"description" json:"description"`
	IsPrimary   bool      `db:"is_primary" json:"is_primary"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type PhonePatch struct {
	PhoneNumber *string `json:"phone_number"`
	Description *string `json:"description"`
	IsPrimary   *bool   `json:"is_primary"`
}

type TransactionType string

const (
	IncomeTransaction  TransactionType = "IN"
	OutcomeTransaction TransactionType = "OUT"
)

func (t TransactionType) Valid() bool {
	return t == IncomeTransaction || t == OutcomeTransaction
}

type TransactionCategory struct {
	ID           int       `db:"id" json:"id"`
	CategoryName string    `db:"category_name" json:"category_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type PaymentType struct {
	ID          int       `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Transaction struct {
	ID              int             `db:"id" json:"id"`
	UserID          int             `db:"user_id" json:"user_id"`
	TransactionType TransactionType `db:"transaction_type" json:"transaction_type"`
	PaymentTypeID   int             `db:"payment_type_id" json:"payment_type_id"`
	Detail          *string         `db:"detail" json:"detail"`
	Amount          decimal.Decimal `db:"amount" json:"amount"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

type SessionStatus string

const (
	SessionInProgress SessionStatus = "IN_PROGRESS"
	SessionCompleted  SessionStatus = "COMPLETED"
)

type WorkSession struct {
	ID         int           `db:"id" json:"id"`
	UserID     int           `db:"user_id" json:"user_id"`
	LoginTime  time.Time     `db:"login_time" json:"login_time"`
	LogoutTime *time.Time    `db:"logout_time" json:"logout_time"`
	Status     SessionStatus `db:"status" json:"status"`
	Comments   *string       `db:"comments" json:"comments"`
}

// ClientPatch carries the fields of a client update. Nil means unchanged.
type ClientPatch struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	DocumentID *string `json:"document_id"`
}

type TransactionFilter struct {
	UserID          int
	TransactionType TransactionType
	Page            int
	PerPage         int
}
