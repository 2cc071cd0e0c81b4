package graphql

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrClosed is reported when the server ends a subscription.
var ErrClosed = errors.New("subscription closed by server")

// Error is an error reported by the GraphQL server.
type Error struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
		Path string `json:"path"`
	} `json:"extensions"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Extensions.Code == "" {
		return e.Message
	}
	return e.Extensions.Code + ": " + e.Message
}

// Code returns the machine readable error code, e.g. `validation-failed`.
func (e *Error) Code() string { return e.Extensions.Code }

// Errors is the `errors` array of a GraphQL response.
type Errors []*Error

// Error implements the error interface.
func (e Errors) Error() string {
	messages := make([]string, 0, len(e))
	for _, err := range e {
		messages = append(messages, err.Error())
	}
	return "graphql: " + strings.Join(messages, "; ")
}

// Unwrap exposes each server error to errors.As.
func (e Errors) Unwrap() []error {
	errs := make([]error, 0, len(e))
	for _, err := range e {
		errs = append(errs, err)
	}
	return errs
}
