package internal

import (
	"errors"
	"fmt"
	"strings"
)

// Generic errors
var (
	// ErrUnauthorized is returned when receiving a 401.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrResourceNotFound is returned when receiving a 404.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrResourceAlreadyExists is returned when attempting to create a resource
	// that already exists.
	ErrResourceAlreadyExists = errors.New("resource already exists")

	// ErrRequiredName is returned when a name option is not present.
	ErrRequiredName = errors.New("name is required")
)

type (
	// HTTPError is returned upon receiving an unexpected HTTP status code.
	HTTPError struct {
		Code    int
		Message string
	}

	// MissingParameterError occurs when the caller has failed to provide a
	// required parameter
	MissingParameterError struct {
		Parameter string
	}

	InvalidParameterError string

	// BatchError is returned by an operation that carries on past the failure
	// of individual items, e.g. uploading a folder of styles, and one or more
	// of those items failed.
	BatchError struct {
		// Action performed on each item, e.g. "uploading style"
		Action string
		// Failed maps each failed item to its error, in the order the items
		// were processed.
		Failed []ItemError
		// Total number of items processed.
		Total int
	}

	ItemError struct {
		Item string
		Err  error
	}
)

func (e InvalidParameterError) Error() string {
	return string(e)
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Message)
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("required parameter missing: %s", e.Parameter)
}

func (e *BatchError) Error() string {
	items := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		items[i] = f.Item
	}
	return fmt.Sprintf("%s: %d of %d failed: %s", e.Action, len(e.Failed), e.Total, strings.Join(items, ", "))
}

// Unwrap returns the errors of the failed items.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f.Err
	}
	return errs
}

// Add records the failure of an item.
func (e *BatchError) Add(item string, err error) {
	e.Failed = append(e.Failed, ItemError{Item: item, Err: err})
}

// Err returns the batch error if any item failed, otherwise nil.
func (e *BatchError) Err() error {
	if len(e.Failed) == 0 {
		return nil
	}
	return e
}
