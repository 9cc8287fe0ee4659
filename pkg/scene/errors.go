package scene

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by QueryError and MutationError.
var (
	ErrNotFound   = errors.New("node does not exist")
	ErrLocked     = errors.New("node is locked")
	ErrReferenced = errors.New("node is referenced")
	ErrExists     = errors.New("name already exists")
	ErrNotEmpty   = errors.New("namespace is not empty")
	ErrClosed     = errors.New("scene is closed")

	ErrDefaultUVSet = errors.New("default uv set cannot be deleted")
)

// QueryError reports a failed read against the scene.
type QueryError struct {
	Op   string
	Node string
	Err  error
}

func (e *QueryError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("scene query %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("scene query %s %q: %v", e.Op, e.Node, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// MutationError reports a write the scene rejected.
type MutationError struct {
	Op   string
	Node string
	Err  error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("scene %s %q: %v", e.Op, e.Node, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}

// IsQueryError reports whether err carries a *QueryError.
func IsQueryError(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe)
}
