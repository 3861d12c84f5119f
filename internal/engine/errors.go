package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents a failure of the store itself, as opposed to a
// failed side effect (those become failure Actions and never surface here).
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// FlowToken identifies the affected flow, if any.
	FlowToken string

	// Details contains additional context.
	Details map[string]string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeStopped indicates the store no longer accepts actions.
	ErrCodeStopped RuntimeErrorCode = "STORE_STOPPED"

	// ErrCodeNilAction indicates Dispatch was called with a nil Action.
	ErrCodeNilAction RuntimeErrorCode = "NIL_ACTION"

	// ErrCodeNilThunk indicates DispatchThunk was called with a nil Thunk.
	ErrCodeNilThunk RuntimeErrorCode = "NIL_THUNK"

	// ErrCodeAlreadyRunning indicates Run was called while another Run
	// loop owns the store.
	ErrCodeAlreadyRunning RuntimeErrorCode = "ALREADY_RUNNING"

	// ErrCodeThunkPanic indicates a thunk panicked.
	ErrCodeThunkPanic RuntimeErrorCode = "THUNK_PANIC"

	// ErrCodeListenerPanic indicates a listener panicked during notification.
	ErrCodeListenerPanic RuntimeErrorCode = "LISTENER_PANIC"
)

// ErrStopped is returned by Dispatch after the store has been stopped.
var ErrStopped = &RuntimeError{Code: ErrCodeStopped, Message: "store is stopped"}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.FlowToken != "" {
		return fmt.Sprintf("%s: %s (flow=%s)", e.Code, e.Message, e.FlowToken)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any RuntimeError with the same code, so
// errors.Is(err, ErrStopped) holds for stop errors carrying a flow token.
func (e *RuntimeError) Is(target error) bool {
	var re *RuntimeError
	if errors.As(target, &re) {
		return re.Code == e.Code
	}
	return false
}

// IsStopped reports whether err means the store was stopped.
func IsStopped(err error) bool {
	return errors.Is(err, ErrStopped)
}

// IsThunkPanic reports whether err came from a recovered thunk panic.
func IsThunkPanic(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeThunkPanic
	}
	return false
}

// NewStoppedError creates a RuntimeError for a dispatch on a stopped store.
func NewStoppedError(flowToken string) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeStopped,
		Message:   "store is stopped",
		FlowToken: flowToken,
	}
}

// NewListenerPanicError creates a RuntimeError for a recovered listener
// panic. It is logged, never returned to a dispatcher.
func NewListenerPanicError(flowToken string, recovered any) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeListenerPanic,
		Message:   fmt.Sprintf("listener panicked: %v", recovered),
		FlowToken: flowToken,
		Details:   map[string]string{"panic": fmt.Sprint(recovered)},
	}
}

// NewThunkPanicError creates a RuntimeError for a recovered thunk panic.
func NewThunkPanicError(flowToken string, recovered any) *RuntimeError {
	return &RuntimeError{
		Code:      ErrCodeThunkPanic,
		Message:   fmt.Sprintf("thunk panicked: %v", recovered),
		FlowToken: flowToken,
		Details:   map[string]string{"panic": fmt.Sprint(recovered)},
	}
}
