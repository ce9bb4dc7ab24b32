package dataset

import (
	"fmt"
	"io/fs"
	"strings"
)

// SourceNotFoundError reports that the default source path is absent and no
// upload was supplied. It unwraps to fs.ErrNotExist.
type SourceNotFoundError struct {
	Path string
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("dataset source not found: %s", e.Path)
}

func (e *SourceNotFoundError) Unwrap() error {
	return fs.ErrNotExist
}

// UnreadableError reports that every (encoding, separator) attempt failed.
// It carries the attempt list and the last underlying parse error.
type UnreadableError struct {
	Attempts []string
	Last     error
}

func (e *UnreadableError) Error() string {
	if e.Last != nil {
		return fmt.Sprintf("dataset unreadable after attempts [%s]: %v",
			strings.Join(e.Attempts, ", "), e.Last)
	}
	return fmt.Sprintf("dataset unreadable after attempts [%s]", strings.Join(e.Attempts, ", "))
}

func (e *UnreadableError) Unwrap() error {
	return e.Last
}
