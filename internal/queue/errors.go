package queue

import (
	"fmt"
	"net/http"
	"strings"
)

// Machine-readable error codes.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeDuplicateIDs = "DUPLICATE_IDS"
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidState = "INVALID_STATE"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeBroadcast    = "BROADCAST_ERROR"
	CodeInternal     = "INTERNAL_ERROR"
)

// CodedError is implemented by every recoverable queue error.
type CodedError interface {
	error
	Code() string
	HTTPStatus() int
	Body() ErrorBody
}

// ErrorBody is the client-facing shape of a queue error.
type ErrorBody struct {
	Error      string   `json:"error"`
	Code       string   `json:"code"`
	Invalid    []string `json:"invalid,omitempty"`
	Valid      []string `json:"valid,omitempty"`
	Duplicates []int    `json:"duplicates,omitempty"`
	Missing    []int    `json:"missing,omitempty"`
	NotPending []int    `json:"not_pending,omitempty"`
}

type ValidationError struct {
	Message string
	Invalid []string
	Valid   []string
}

func (e *ValidationError) Error() string {
	if len(e.Invalid) > 0 {
		return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Invalid, ", "))
	}
	return e.Message
}

func (e *ValidationError) Code() string    { return CodeValidation }
func (e *ValidationError) HTTPStatus() int { return http.StatusBadRequest }
func (e *ValidationError) Body() ErrorBody {
	return ErrorBody{Error: e.Error(), Code: e.Code(), Invalid: e.Invalid, Valid: e.Valid}
}

type DuplicateIDsError struct {
	Duplicates []int
}

func (e *DuplicateIDsError) Error() string {
	return fmt.Sprintf("duplicate ids are not allowed: %s", joinInts(e.Duplicates))
}

func (e *DuplicateIDsError) Code() string    { return CodeDuplicateIDs }
func (e *DuplicateIDsError) HTTPStatus() int { return http.StatusBadRequest }
func (e *DuplicateIDsError) Body() ErrorBody {
	return ErrorBody{Error: e.Error(), Code: e.Code(), Duplicates: e.Duplicates}
}

type NotFoundError struct {
	Missing []int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("some ids were not found: %s", joinInts(e.Missing))
}

func (e *NotFoundError) Code() string    { return CodeNotFound }
func (e *NotFoundError) HTTPStatus() int { return http.StatusNotFound }
func (e *NotFoundError) Body() ErrorBody {
	return ErrorBody{Error: e.Error(), Code: e.Code(), Missing: e.Missing}
}

type StateConflictError struct {
	NotPending []int
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("all items must be PENDING to reorder: %s", joinInts(e.NotPending))
}

func (e *StateConflictError) Code() string    { return CodeInvalidState }
func (e *StateConflictError) HTTPStatus() int { return http.StatusBadRequest }
func (e *StateConflictError) Body() ErrorBody {
	return ErrorBody{Error: e.Error(), Code: e.Code(), NotPending: e.NotPending}
}

// UnauthorizedError is a queue request without a valid principal.
type UnauthorizedError struct{}

func (e *UnauthorizedError) Error() string   { return "Unauthorized" }
func (e *UnauthorizedError) Code() string     { return CodeUnauthorized }
func (e *UnauthorizedError) HTTPStatus() int { return http.StatusUnauthorized }
func (e *UnauthorizedError) Body() ErrorBody {
	return ErrorBody{Error: e.Error(), Code: e.Code()}
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}
