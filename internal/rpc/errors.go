package rpc

import (
	"errors"
	"fmt"

	"github.com/nilelabs/labs/internal/domain/activity"
	"github.com/nilelabs/labs/internal/domain/experiment"
	"github.com/nilelabs/labs/internal/domain/user"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParse          = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	// CodeNotFound is an application code for missing records.
	CodeNotFound = -32004
)

// Application error kinds carried in the error data.
const (
	KindNotFound       = "NOT_FOUND"
	KindInvalidInput   = "INVALID_INPUT"
	KindMethodNotFound = "METHOD_NOT_FOUND"
)

// Error is a classified failure that maps onto a JSON-RPC error object.
type Error struct {
	Code    int
	Kind    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// RPCCode returns the JSON-RPC error code.
func (e *Error) RPCCode() int { return e.Code }

// ErrorKind returns the application error kind.
func (e *Error) ErrorKind() string { return e.Kind }

// MapError classifies domain errors. Unclassified errors return nil.
func MapError(err error) *Error {
	if err == nil {
		return nil
	}
	var rpcErr *Error
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr
	case errors.Is(err, experiment.ErrExperimentNotFound):
		return &Error{Code: CodeNotFound, Kind: KindNotFound, Message: "experiment not found"}
	case errors.Is(err, experiment.ErrParentNotFound):
		return &Error{Code: CodeNotFound, Kind: KindNotFound, Message: "parent experiment not found"}
	case errors.Is(err, user.ErrUserNotFound):
		return &Error{Code: CodeNotFound, Kind: KindNotFound, Message: "user not found"}
	case errors.Is(err, experiment.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput),
		errors.Is(err, activity.ErrUnknownEventType):
		return &Error{Code: CodeInvalidParams, Kind: KindInvalidInput, Message: err.Error()}
	default:
		return nil
	}
}

func mapError(err error) error {
	if rpcErr := MapError(err); rpcErr != nil {
		return rpcErr
	}
	return err
}

func invalidParams(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidParams, Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}
