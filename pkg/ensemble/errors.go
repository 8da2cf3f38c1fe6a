package ensemble

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var ErrDimensionMismatch = errors.New("sample dimensionality does not match schema")

// ConfigurationError reports a design that cannot be built: bad schema, bad sampler input or
// a schema/sampler mismatch. Nothing is written when it occurs.
type ConfigurationError struct {
	Op   string
	Slot string
	// Dim is the sample dimension involved, -1 when not relevant.
	Dim int
	Err error
}

func (e *ConfigurationError) Error() string {
	parts := []string{"configuration error"}
	if e.Op != "" {
		parts = append(parts, e.Op)
	}

	if e.Slot != "" {
		parts = append(parts, fmt.Sprintf("slot %q", e.Slot))
	}

	if e.Dim >= 0 {
		parts = append(parts, fmt.Sprintf("dimension %d", e.Dim))
	}

	return strings.Join(parts, ": ") + ": " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NewConfigurationError wraps err for operation op.
func NewConfigurationError(op string, err error) *ConfigurationError {
	return &ConfigurationError{Op: op, Dim: -1, Err: err}
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError

	return errors.As(err, &cfgErr)
}
