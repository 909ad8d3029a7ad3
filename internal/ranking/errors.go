package ranking

import "fmt"

// ValidationError reports an invalid request parameter.
// Raised before any network call is made.
type ValidationError struct {
	Param string
	Value interface{}
	Hint  string
}

func (e *ValidationError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid %s: %v (%s)", e.Param, e.Value, e.Hint)
	}
	return fmt.Sprintf("invalid %s: %v", e.Param, e.Value)
}

// NetworkError reports a transport failure, timeout, or non-2xx response.
type NetworkError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("network error for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("unexpected status code %d for %s", e.StatusCode, e.URL)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports an embedded JSON blob that was found but is malformed.
// The absence of a JSON blob is not an error; only found-but-broken is.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data parsing error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("data parsing error: %s", e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }
