package mezzo

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrFetchTimeout marks a page request that exceeded the fetch timeout.
	ErrFetchTimeout = errors.New("fetch timeout")
	// ErrFetchTransport marks a failed network round trip other than a timeout.
	ErrFetchTransport = errors.New("fetch transport error")
	// ErrParse marks markup that could not be parsed into a document tree.
	ErrParse = errors.New("failed to parse page markup")
)

// StatusError reports a non-2xx HTTP response for a specific URL.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned http status code: %d", e.URL, e.StatusCode)
}

// classifyFetchErr attributes a transport failure to the requested URL,
// distinguishing timeouts from other transport errors.
func classifyFetchErr(url string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%s is not responding: %w", url, ErrFetchTimeout)
	}
	return fmt.Errorf("%s: %w: %v", url, ErrFetchTransport, err)
}
