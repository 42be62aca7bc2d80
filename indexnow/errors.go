package indexnow

import "fmt"

// ConfigurationError is returned when the engine URL is unusable. Err is set
// when the URL uses https:// but does not parse.
type ConfigurationError struct {
	EngineURL string
	Err       error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("Invalid search engine url '%s': %v", e.EngineURL, e.Err)
	}
	return fmt.Sprintf("Invalid search engine url '%s'. Must use 'https://'", e.EngineURL)
}

// Unwrap returns the parse error, if any.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ValidationError reports a batch that cannot be sent as given.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Batch validation failures, comparable with errors.Is.
var (
	ErrNoURLs      = &ValidationError{Reason: "No urls to submit"}
	ErrTooManyURLs = &ValidationError{Reason: "Cannot submit more than 10,000 urls at once"}
)

// SubmissionError means the search engine answered with a status other than 200.
// URL is only set for single URL submissions.
type SubmissionError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *SubmissionError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("Failed to submit url '%s' to search engine. Status: %d %s", e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("Failed to submit urls to search engine. Status: %d %s", e.StatusCode, e.Body)
}

// TransportError wraps a failure of the HTTP transport itself (DNS, dial, timeout,
// reading the response).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
