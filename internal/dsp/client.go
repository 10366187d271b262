package dsp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danmuck/dspctl/internal/jsonld"
)

const (
	DefaultRequestTimeout = 5 * time.Second
	maxResponseBytes      = 8 << 20
)

// Client performs single management API calls. It never retries.
type Client struct {
	http *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultRequestTimeout}
	}
	return &Client{http: httpClient}
}

type request struct {
	method string
	url    string
	body   any
	header http.Header
	query  url.Values
}

// do sends req and returns the body of a 2xx response. Anything else is a
// *TransportError.
func (c *Client) do(ctx context.Context, req request) ([]byte, error) {
	target := req.url
	if len(req.query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("dsp: encode %s %s: %w", req.method, target, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return nil, &TransportError{Method: req.method, URL: target, Err: err}
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: req.method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Method: req.method, URL: target, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Method: req.method,
			URL:    target,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}

func (c *Client) object(ctx context.Context, req request) (jsonld.Object, error) {
	data, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}
	obj, err := jsonld.ParseObject(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrMalformedBody, req.method, req.url, err)
	}
	return obj, nil
}

func (c *Client) PostJSON(ctx context.Context, target string, body any) (jsonld.Object, error) {
	return c.object(ctx, request{method: http.MethodPost, url: target, body: body})
}

func (c *Client) GetJSON(ctx context.Context, target string) (jsonld.Object, error) {
	return c.object(ctx, request{method: http.MethodGet, url: target})
}

// Send issues a request whose response body is not inspected.
func (c *Client) Send(ctx context.Context, method, target string, body any) error {
	_, err := c.do(ctx, request{method: method, url: target, body: body})
	return err
}

func joinURL(base string, segments ...string) string {
	out := strings.TrimRight(base, "/")
	for _, s := range segments {
		out += "/" + strings.Trim(s, "/")
	}
	return out
}

func escape(id string) string {
	return url.PathEscape(id)
}
