// Package source provides loaders for posts and articles: JSON over HTTP, local JSON files and RSS/Atom feeds.
package source

import (
	"errors"
	"fmt"
)

// FetchError reports a failure to load posts or articles from a source
type FetchError struct {
	Source     string // url or path of the source
	StatusCode int    // http status for non-success responses, zero otherwise
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status code %d", e.Source, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is or wraps a FetchError
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
