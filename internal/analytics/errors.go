package analytics

import (
	"errors"
	"fmt"
)

// ErrEmptySelection reports that the filter yielded zero rows. It is a
// recoverable outcome: the user picks different filters and the session
// continues.
var ErrEmptySelection = errors.New("selection matched no rows")

// MissingColumnError reports a required canonical column absent after
// normalization, naming the column.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q missing after normalization", e.Column)
}
