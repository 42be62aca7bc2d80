package indexnow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "5f0b1c2a9e8d4c7b8a6f3e2d1c0b9a8f"

// mockHTTPClient implements HTTPClient for testing
type mockHTTPClient struct {
	doFunc   func(req *http.Request) (*http.Response, error)
	requests []*http.Request
	bodies   []string
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.requests = append(m.requests, req)
	body := ""
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		body = string(data)
	}
	m.bodies = append(m.bodies, body)
	return m.doFunc(req)
}

func respondWith(status int, body string) func(req *http.Request) (*http.Response, error) {
	return func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	}
}

func newTestClient(t *testing.T, mock *mockHTTPClient, opts ...Option) *Client {
	t.Helper()
	client, err := New(Bing, testKey, append(opts, WithHTTPClient(mock))...)
	require.NoError(t, err)
	return client
}

func TestNew(t *testing.T) {
	t.Run("rejects non https engines", func(t *testing.T) {
		for _, engine := range []string{"http://www.bing.com/indexnow", "www.bing.com/indexnow", "", "HTTPS://www.bing.com/indexnow", "ftp://yandex.com"} {
			client, err := New(engine, testKey)
			assert.Nil(t, client)

			var configErr *ConfigurationError
			require.ErrorAs(t, err, &configErr, engine)
			assert.Equal(t, engine, configErr.EngineURL)
			assert.Equal(t, fmt.Sprintf("Invalid search engine url '%s'. Must use 'https://'", engine), err.Error())
		}
	})

	t.Run("rejects unparseable engines", func(t *testing.T) {
		client, err := New("https://bad host/indexnow", testKey)
		assert.Nil(t, client)

		var configErr *ConfigurationError
		require.ErrorAs(t, err, &configErr)
		assert.Equal(t, "https://bad host/indexnow", configErr.EngineURL)
		assert.Error(t, configErr.Unwrap())
		assert.Contains(t, err.Error(), "Invalid search engine url 'https://bad host/indexnow'")
	})

	t.Run("strips a single trailing slash", func(t *testing.T) {
		testCases := map[string]string{
			"https://www.bing.com/indexnow/":  "https://www.bing.com/indexnow",
			"https://www.bing.com/indexnow":   "https://www.bing.com/indexnow",
			"https://www.bing.com/indexnow//": "https://www.bing.com/indexnow/",
			"https://":                        "https:/",
		}
		for input, expected := range testCases {
			client, err := New(input, testKey)
			require.NoError(t, err)
			assert.Equal(t, expected, client.Engine())
		}
	})

	t.Run("stores ownership", func(t *testing.T) {
		client, err := New(Yandex, testKey, WithKeyLocation("https://example.com/key.txt"))
		require.NoError(t, err)
		assert.Equal(t, Ownership{Key: testKey, KeyLocation: "https://example.com/key.txt"}, client.Ownership())
	})

	t.Run("defaults the transport", func(t *testing.T) {
		client, err := New(Bing, testKey, WithHTTPClient(nil))
		require.NoError(t, err)
		assert.NotNil(t, client.httpClient)
	})

	t.Run("uses the injected transport", func(t *testing.T) {
		mock := &mockHTTPClient{}
		client, err := New(Bing, testKey, WithHTTPClient(mock))
		require.NoError(t, err)
		assert.Equal(t, mock, client.httpClient)
	})
}

func TestSubmitURL_Success(t *testing.T) {
	mock := &mockHTTPClient{doFunc: respondWith(http.StatusOK, "")}
	client := newTestClient(t, mock)

	err := client.SubmitURL(context.Background(), "http://a.com/x")
	require.NoError(t, err)

	require.Len(t, mock.requests, 1)
	req := mock.requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, Bing+"?url=http://a.com/x&key="+testKey, req.URL.String())
}

func TestSubmitURL_KeyLocation(t *testing.T) {
	mock := &mockHTTPClient{doFunc: respondWith(http.StatusOK, "")}
	client := newTestClient(t, mock, WithKeyLocation("https://a.com/"+testKey+".txt"))

	require.NoError(t, client.SubmitURL(context.Background(), "https://a.com/page"))

	require.Len(t, mock.requests, 1)
	assert.Equal(t,
		Bing+"?url=https://a.com/page&key="+testKey+"&keyLocation=https://a.com/"+testKey+".txt",
		mock.requests[0].URL.String())
}

func TestSubmitURL_Rejected(t *testing.T) {
	mock := &mockHTTPClient{doFunc: respondWith(http.StatusForbidden, "forbidden")}
	client := newTestClient(t, mock)

	err := client.SubmitURL(context.Background(), "http://a.com/x")
	require.Error(t, err)

	var submissionErr *SubmissionError
	require.ErrorAs(t, err, &submissionErr)
	assert.Equal(t, http.StatusForbidden, submissionErr.StatusCode)
	assert.Equal(t, "http://a.com/x", submissionErr.URL)
	assert.Equal(t, "forbidden", submissionErr.Body)
	assert.Contains(t, err.Error(), "forbidden")
	assert.Equal(t, "Failed to submit url 'http://a.com/x' to search engine. Status: 403 forbidden", err.Error())
}

func TestSubmitURL_NonOKSuccessStatusIsRejected(t *testing.T) {
	// IndexNow answers 202 while the key is still being validated; only 200 counts.
	mock := &mockHTTPClient{doFunc: respondWith(http.StatusAccepted, "")}
	client := newTestClient(t, mock)

	var submissionErr *SubmissionError
	require.ErrorAs(t, client.SubmitURL(context.Background(), "http://a.com/x"), &submissionErr)
	assert.Equal(t, http.StatusAccepted, submissionErr.StatusCode)
}

func TestSubmitURL_TransportError(t *testing.T) {
	networkErr := errors.New("dial tcp: lookup www.bing.com: no such host")
	mock := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		return nil, networkErr
	}}
	client := newTestClient(t, mock)

	err := client.SubmitURL(context.Background(), "http://a.com/x")

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, networkErr)
	assert.Equal(t, "GET "+Bing, transportErr.Op)

	var submissionErr *SubmissionError
	assert.False(t, errors.As(err, &submissionErr))
}

func TestSubmitURL_ContextIsForwarded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		return nil, req.Context().Err()
	}}
	client := newTestClient(t, mock)

	err := client.SubmitURL(ctx, "http://a.com/x")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSubmitURL_EscapesUnsafeBytes(t *testing.T) {
	testCases := []struct {
		name     string
		url      string
		expected string
	}{
		{name: "space", url: "http://a.com/a b", expected: "url=http://a.com/a%20b&key=" + testKey},
		{name: "non-ascii", url: "http://a.com/café", expected: "url=http://a.com/caf%C3%A9&key=" + testKey},
		{name: "quotes and brackets", url: `http://a.com/"<x>"`, expected: "url=http://a.com/%22%3Cx%3E%22&key=" + testKey},
		{name: "control characters", url: "http://a.com/\x7f\t", expected: "url=http://a.com/%7F%09&key=" + testKey},
		{name: "reserved characters kept", url: "http://a.com/p?q=1&r=2", expected: "url=http://a.com/p?q=1&r=2&key=" + testKey},
		{name: "existing escapes kept", url: "http://a.com/a%20b", expected: "url=http://a.com/a%20b&key=" + testKey},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &mockHTTPClient{doFunc: respondWith(http.StatusOK, "")}
			client := newTestClient(t, mock)

			require.NoError(t, client.SubmitURL(context.Background(), tc.url))

			require.Len(t, mock.requests, 1)
			assert.Equal(t, tc.expected, mock.requests[0].URL.RawQuery)
		})
	}
}

func TestSubmitURL_RequestLineIsValid(t *testing.T) {
	var rawQuery string
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		assert.Equal(t, "http://a.com/a b", r.URL.Query().Get("url"))
	}))
	defer srv.Close()

	client, err := New(srv.URL+"/indexnow", testKey, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	require.NoError(t, client.SubmitURL(context.Background(), "http://a.com/a b"))
	assert.Equal(t, "url=http://a.com/a%20b&key="+testKey, rawQuery)
}

func TestSubmitURLs_Success(t *testing.T) {
	mock := &mockHTTPClient{doFunc: respondWith(http.StatusOK, "")}
	client := newTestClient(t, mock)

	err := client.SubmitURLs(context.Background(), "http://a.com", []string{"http://a.com/x"})
	require.NoError(t, err)

	require.Len(t, mock.requests, 1)
	req := mock.requests[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, Bing+"/indexnow", req.URL.String())
	assert.Equal(t, "application/json; charset=utf-8", req.Header.Get("Content-Type"))
	assert.JSONEq(t,
		`{"host":"http://a.com","key":"`+testKey+`","urlList":["http://a.com/x"]}`,
		mock.bodies[0])
}

func TestSubmitURLs_KeyLocationInBody(t *testing.T) {
	mock := &mockHTTPClient{doFunc: respondWith(http.StatusOK, "")}
	client := newTestClient(t, mock, WithKeyLocation("https://a.com/key.txt"))

	require.NoError(t, client.SubmitURLs(context.Background(), "a.com", []string{"https://a.com/1", "https://a.com/2"}))

	var body Body
	require.NoError(t, json.Unmarshal([]byte(mock.bodies[0]), &body))
	assert.Equal(t, Body{
		Host:        "a.com",
		Key:         testKey,
		KeyLocation: "https://a.com/key.txt",
		URLList:     []string{"https://a.com/1", "https://a.com/2"},
	}, body)
}

func TestSubmitURLs_Validation(t *testing.T) {
	testCases := []struct {
		name     string
		urls     []string
		expected error
	}{
		{name: "nil list", urls: nil, expected: ErrNoURLs},
		{name: "empty list", urls: []string{}, expected: ErrNoURLs},
		{name: "too many urls", urls: make([]string, MaxURLsPerRequest+1), expected: ErrTooManyURLs},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &mockHTTPClient{doFunc: respondWith(http.StatusOK, "")}
			client := newTestClient(t, mock)

			err := client.SubmitURLs(context.Background(), "http://a.com", tc.urls)
			assert.ErrorIs(t, err, tc.expected)

			var validationErr *ValidationError
			assert.ErrorAs(t, err, &validationErr)
			assert.Empty(t, mock.requests, "no request may be sent for an invalid batch")
		})
	}

	assert.Equal(t, "No urls to submit", ErrNoURLs.Error())
	assert.Equal(t, "Cannot submit more than 10,000 urls at once", ErrTooManyURLs.Error())
}

func TestSubmitURLs_MaximumBatch(t *testing.T) {
	urls := make([]string, MaxURLsPerRequest)
	for i := range urls {
		urls[i] = fmt.Sprintf("http://a.com/%d", i)
	}

	mock := &mockHTTPClient{doFunc: respondWith(http.StatusOK, "")}
	client := newTestClient(t, mock)

	require.NoError(t, client.SubmitURLs(context.Background(), "http://a.com", urls))
	require.Len(t, mock.requests, 1)

	var body Body
	require.NoError(t, json.Unmarshal([]byte(mock.bodies[0]), &body))
	assert.Len(t, body.URLList, MaxURLsPerRequest)
}

func TestSubmitURLs_Rejected(t *testing.T) {
	mock := &mockHTTPClient{doFunc: respondWith(http.StatusUnprocessableEntity, "url does not belong to host")}
	client := newTestClient(t, mock)

	err := client.SubmitURLs(context.Background(), "http://a.com", []string{"http://b.com/x"})

	var submissionErr *SubmissionError
	require.ErrorAs(t, err, &submissionErr)
	assert.Equal(t, http.StatusUnprocessableEntity, submissionErr.StatusCode)
	assert.Empty(t, submissionErr.URL)
	assert.Equal(t, "Failed to submit urls to search engine. Status: 422 url does not belong to host", err.Error())
}

func TestSubmitURLs_TransportError(t *testing.T) {
	mock := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		return nil, context.DeadlineExceeded
	}}
	client := newTestClient(t, mock)

	err := client.SubmitURLs(context.Background(), "http://a.com", []string{"http://a.com/x"})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "POST "+Bing, transportErr.Op)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestSubmitURLs_ResponseReadError(t *testing.T) {
	mock := &mockHTTPClient{doFunc: func(req *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(failingReader{})}, nil
	}}
	client := newTestClient(t, mock)

	err := client.SubmitURLs(context.Background(), "http://a.com", []string{"http://a.com/x"})

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "read response body", transportErr.Op)
}

func TestIndexNow(t *testing.T) {
	t.Run("single url", func(t *testing.T) {
		mock := &mockHTTPClient{doFunc: respondWith(http.StatusOK, "")}

		err := IndexNow(context.Background(), "http://a.com/1", Yandex, testKey, WithHTTPClient(mock))
		require.NoError(t, err)

		require.Len(t, mock.requests, 1)
		assert.Equal(t, http.MethodGet, mock.requests[0].Method)
		assert.Equal(t, Yandex+"?url=http://a.com/1&key="+testKey, mock.requests[0].URL.String())
	})

	t.Run("host followed by urls", func(t *testing.T) {
		mock := &mockHTTPClient{doFunc: respondWith(http.StatusOK, "")}

		err := IndexNow(context.Background(), []string{"http://a.com", "http://a.com/1", "http://a.com/2"}, Yandex, testKey, WithHTTPClient(mock))
		require.NoError(t, err)

		require.Len(t, mock.requests, 1)
		assert.Equal(t, http.MethodPost, mock.requests[0].Method)
		assert.Equal(t, Yandex+"/indexnow", mock.requests[0].URL.String())

		var body Body
		require.NoError(t, json.Unmarshal([]byte(mock.bodies[0]), &body))
		assert.Equal(t, "http://a.com", body.Host)
		assert.Equal(t, []string{"http://a.com/1", "http://a.com/2"}, body.URLList)
	})

	t.Run("host only", func(t *testing.T) {
		mock := &mockHTTPClient{doFunc: respondWith(http.StatusOK, "")}

		err := IndexNow(context.Background(), []string{"http://a.com"}, Yandex, testKey, WithHTTPClient(mock))
		assert.ErrorIs(t, err, ErrNoURLs)
		assert.Empty(t, mock.requests)
	})

	t.Run("empty list", func(t *testing.T) {
		mock := &mockHTTPClient{doFunc: respondWith(http.StatusOK, "")}

		err := IndexNow(context.Background(), []string{}, Yandex, testKey, WithHTTPClient(mock))
		assert.ErrorIs(t, err, ErrNoURLs)
		assert.Empty(t, mock.requests)
	})

	t.Run("invalid engine", func(t *testing.T) {
		err := IndexNow(context.Background(), "http://a.com/1", "http://yandex.com/indexnow", testKey)

		var configErr *ConfigurationError
		assert.ErrorAs(t, err, &configErr)
	})
}
