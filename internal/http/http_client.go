package http

import "net/http"

// HTTPClient is the transport used for outbound IndexNow requests.
// *http.Client satisfies it, which keeps tests free to swap in a fake.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
