package mvc

import (
	"errors"
	"fmt"
)

// The sentinels below are panic values. They report programming errors in role
// handlers; the System never returns them.

// ErrTokenExpired is raised when a token is used after its handler returned.
var ErrTokenExpired = errors.New("mvc: token used after its handler returned")

// ErrTokenNotActive is raised when an outer token is used while a nested
// invocation started with a Now call is still running.
var ErrTokenNotActive = errors.New("mvc: token used while a nested handler is running")

// ErrReentrantDispatch is raised when a System entry point is called from inside a
// handler or hook. Reentrant work must be scheduled through the token.
var ErrReentrantDispatch = errors.New("mvc: system entry point called during dispatch")

// DepthExceededError is raised when nested dispatch exceeds the WithMaxDepth limit.
type DepthExceededError struct {
	Kind  Kind // envelope that would have exceeded the limit
	Depth int
	Limit int
}

func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("mvc: dispatch depth %d exceeds limit %d while handling %s", e.Depth, e.Limit, e.Kind)
}
