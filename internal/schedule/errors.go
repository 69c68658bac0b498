package schedule

import "fmt"

// FetchError is returned by Refresh when the spreadsheet could not be read.
// The previous snapshot stays in place.
type FetchError struct {
	Sheet string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch sheet %q: %v", e.Sheet, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Cause lets github.com/pkg/errors.Cause reach the underlying error.
func (e *FetchError) Cause() error { return e.Err }
