package rubocopast

import (
	"fmt"
	"io/fs"
)

// FileNotFoundError indicates that a path-based construction could not find
// the file. It is distinct from other I/O errors so that callers can treat
// a missing target differently from, say, a permission problem.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file not found: %s", e.Path)
}

// Unwrap makes errors.Is(err, fs.ErrNotExist) hold.
func (e *FileNotFoundError) Unwrap() error {
	return fs.ErrNotExist
}
