package db

import (
	"errors"
	"fmt"
)

var ErrTokenRevoked = errors.New("refresh token revoked or unknown")
var ErrSessionAlreadyOpen = errors.New("user already has a work session in progress")
var ErrNoOpenSession = errors.New("no work session in progress")

type UserExistsError struct {
	Username string
}

func (e *UserExistsError) Error() string {
	return fmt.Sprintf("User %s exists", e.Username)
}

type UserNotFoundError struct {
	Username string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("User %s not found", e.Username)
}

// NotFoundError reports a missing row of the named entity.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// ReferenceError reports a write that points at a row that does not exist
// or is still referenced.
type ReferenceError struct {
	Constraint string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("Reference violation on %s", e.Constraint)
}

type CategoryExistsError struct {
	Name string
}

func (e *CategoryExistsError) Error() string {
	return fmt.Sprintf("Category %s exists", e.Name)
}
