package services

import (
	"errors"
	"fmt"

	"github.com/kendall-kelly/quotation-allocation-api/repository"
)

// Validation error codes
const (
	CodeEmptyCart        = "EMPTY_CART"
	CodeNoDistributors   = "NO_DISTRIBUTORS"
	CodeInvalidBid       = "INVALID_BID"
	CodeEmptyMessage     = "EMPTY_MESSAGE"
	CodeQuorumNotReached = "QUORUM_NOT_REACHED"
	CodeIllegalState     = "ILLEGAL_STATE"
)

// ValidationError reports malformed input such as an empty cart or a bad bid
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports an unknown quotation, order, response or party
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

// AuthorizationError reports an attempt to act on another distributor's rows
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}

// InvalidStateError reports an operation that is illegal in the current state.
// State is left unchanged when it is returned.
type InvalidStateError struct {
	Code     string
	Resource string
	ID       uint
	Current  string
	Action   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %d: status is %s", e.Action, e.Resource, e.ID, e.Current)
}

// ConcurrencyError reports a lost update or an allocation already in flight
type ConcurrencyError struct {
	Resource string
	ID       uint
	Message  string
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("%s %d: %s", e.Resource, e.ID, e.Message)
}

// TransientError wraps a persistence failure; the caller may retry
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth retrying
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// storeError converts a repository error into the service taxonomy.
// Errors that are already typed pass through unchanged.
func storeError(op, resource string, id uint, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: resource, ID: id}
	}
	if isTyped(err) {
		return err
	}
	return &TransientError{Op: op, Err: err}
}

// transient wraps an untyped error; typed errors pass through unchanged
func transient(op string, err error) error {
	if err == nil || isTyped(err) {
		return err
	}
	return &TransientError{Op: op, Err: err}
}

func isTyped(err error) bool {
	var (
		validation   *ValidationError
		notFound     *NotFoundError
		authz        *AuthorizationError
		invalidState *InvalidStateError
		concurrency  *ConcurrencyError
		transientErr *TransientError
	)
	return errors.As(err, &validation) ||
		errors.As(err, &notFound) ||
		errors.As(err, &authz) ||
		errors.As(err, &invalidState) ||
		errors.As(err, &concurrency) ||
		errors.As(err, &transientErr)
}
