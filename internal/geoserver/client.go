// Package geoserver provides a client for the GeoServer REST API.
package geoserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"github.com/publibase/publibase/internal"
	"github.com/publibase/publibase/internal/logr"
)

// maximum number of bytes of an error response included in an error
const maxErrorBody = 4096

type (
	Client struct {
		baseURL  *url.URL
		user     string
		password string
		headers  http.Header
		http     *retryablehttp.Client
		logger   logr.Logger
	}

	// requestOption sets a header or query parameter on a request.
	requestOption func(*retryablehttp.Request)
)

func NewClient(config Config) (*Client, error) {
	if config.URL == "" {
		config.URL = DefaultURL
	}
	if config.Transport == nil {
		config.Transport = http.DefaultTransport
	}
	if config.Logger.GetSink() == nil {
		config.Logger = logr.Discard()
	}
	baseURL, err := ParseBaseURL(config.URL)
	if err != nil {
		return nil, err
	}

	client := &Client{
		baseURL:  baseURL,
		user:     config.User,
		password: config.Password,
		headers:  http.Header{"User-Agent": []string{"publibase"}},
		logger:   config.Logger,
	}
	client.http = &retryablehttp.Client{
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
		HTTPClient:   &http.Client{Transport: config.Transport},
		RetryWaitMin: 500 * time.Millisecond,
		RetryWaitMax: 30 * time.Second,
		RetryMax:     5,
	}
	if config.RetryRequests {
		client.http.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
			retry, retryErr := retryablehttp.ErrorPropagatedRetryPolicy(ctx, resp, err)
			if retry {
				if retryErr != nil {
					err = retryErr
				}
				// The http response is nil when there is a problem with the
				// request and there is no response, e.g. socket timeout.
				if resp != nil && resp.Request != nil {
					config.Logger.Error(err, "retrying request", "url", resp.Request.URL, "status", resp.StatusCode)
				} else {
					config.Logger.Error(err, "retrying request")
				}
			}
			return retry, retryErr
		}
	} else {
		client.http.CheckRetry = func(_ context.Context, _ *http.Response, err error) (bool, error) {
			return false, err
		}
	}
	return client, nil
}

// URL returns the GeoServer base URL.
func (c *Client) URL() string {
	return c.baseURL.String()
}

// restURL constructs the URL of a REST resource from its path segments,
// escaping each segment.
func (c *Client) restURL(segments ...string) *url.URL {
	return c.baseURL.JoinPath(append([]string{"rest"}, segments...)...)
}

func withQuery(key, value string) requestOption {
	return func(req *retryablehttp.Request) {
		q := req.URL.Query()
		q.Set(key, value)
		req.URL.RawQuery = q.Encode()
	}
}

func withHeader(key, value string) requestOption {
	return func(req *retryablehttp.Request) {
		req.Header.Set(key, value)
	}
}

// newRequest creates a REST API request. The body, if non-nil, must be a
// []byte.
func (c *Client) newRequest(ctx context.Context, method string, u *url.URL, body []byte, opts ...requestOption) (*retryablehttp.Request, error) {
	var rawBody any
	if body != nil {
		rawBody = body
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, u.String(), rawBody)
	if err != nil {
		return nil, err
	}
	maps.Copy(req.Header, c.headers)
	req.Header.Set("Accept", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}
	for _, fn := range opts {
		fn(req)
	}
	return req, nil
}

// send sends the request and checks the response code. The caller must close
// the response body.
func (c *Client) send(ctx context.Context, req *retryablehttp.Request) (*http.Response, error) {
	c.logger.V(1).Info("sending request", "method", req.Method, "url", req.URL.String())

	resp, err := c.http.Do(req)
	if err != nil {
		// If we got an error, and the context has been canceled,
		// the context's error is probably more useful.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			return nil, err
		}
	}

	c.logger.V(2).Info("received response", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode)

	if err := checkResponseCode(resp); err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	return resp, nil
}

// do sends the request and checks the response. If v is an io.Writer the
// raw response body is written to it; otherwise, if v is non-nil, the body
// is decoded as JSON into v.
func (c *Client) do(ctx context.Context, req *retryablehttp.Request, v any) error {
	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if v == nil {
		return nil
	}
	if w, ok := v.(io.Writer); ok {
		_, err = io.Copy(w, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding response from %s: %w", req.URL.Path, err)
	}
	return nil
}

// get retrieves a resource, decoding its JSON representation into v.
func (c *Client) get(ctx context.Context, u *url.URL, v any) error {
	req, err := c.newRequest(ctx, "GET", u, nil)
	if err != nil {
		return err
	}
	return c.do(ctx, req, v)
}

// getRaw retrieves a resource as raw bytes.
func (c *Client) getRaw(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := c.newRequest(ctx, "GET", u, nil, withHeader("Accept", "*/*"))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := c.do(ctx, req, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// checkResponseCode maps an unsuccessful HTTP status code to an error.
func checkResponseCode(r *http.Response) error {
	if r.StatusCode >= 200 && r.StatusCode <= 299 {
		return nil
	}
	switch r.StatusCode {
	case 401:
		return internal.ErrUnauthorized
	case 404:
		return internal.ErrResourceNotFound
	case 409:
		return internal.ErrResourceAlreadyExists
	}
	// GeoServer explains most errors in a plain text body.
	body, _ := io.ReadAll(io.LimitReader(r.Body, maxErrorBody))
	return &internal.HTTPError{
		Code:    r.StatusCode,
		Message: strings.TrimSpace(string(body)),
	}
}
