package api

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFileType is returned before any request is made when an
// upload candidate does not carry an accepted extension.
var ErrUnsupportedFileType = errors.New("please upload an Excel file (.xlsx or .xls) or a .csv")

// ServerError reports a non-2xx response from the backend.
type ServerError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("backend error: %s (%s)", e.Status, e.Body)
}

// IsServerError reports whether err wraps a ServerError.
func IsServerError(err error) bool {
	var serverErr *ServerError
	return errors.As(err, &serverErr)
}
