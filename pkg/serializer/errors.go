package serializer

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrMissingMember = errors.New("member missing from ensemble")
	ErrDuplicate     = errors.New("member written twice")
	ErrClosed        = errors.New("sink already closed")
)

// IOError reports an output that could not be written.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func newIOError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}

// IsIOError reports whether err or one of its causes is an IOError.
func IsIOError(err error) bool {
	var ioErr *IOError

	return errors.As(err, &ioErr)
}
