package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/mahudhurio/core"
)

// ErrUnavailable is the cause of every error of a remote service that could not be reached.
var ErrUnavailable = errors.New("upstream service unavailable")

// StatusError is returned when a remote service answers with a non-2xx status.
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s service responded %d: %s", e.Service, e.StatusCode, strings.TrimSpace(e.Body))
}

type tokenKey struct{}

// WithToken returns a copy of ctx carrying the bearer token forwarded to the remote services.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client is a JSON client of one remote service.
type Client struct {
	service string
	baseURL string
	rest    *rest.Client
}

func NewClient(service, baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		service: service,
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    &rest.Client{HTTPClient: httpClient},
	}
}

func newHTTPClient(conf *core.Config) *http.Client {
	return &http.Client{Timeout: conf.Services.Timeout}
}

// get GETs path and decodes the JSON response body into dst.
func (c *Client) get(ctx context.Context, path string, query map[string]string, dst interface{}) error {
	req := rest.Request{
		Method:      rest.Get,
		BaseURL:     c.baseURL + path,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: query,
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Headers["Authorization"] = "Bearer " + token
	}

	resp, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(ErrUnavailable, "%s: GET %s: %v", c.service, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Service: c.service, StatusCode: resp.StatusCode, Body: resp.Body}
	}
	if err = json.Unmarshal([]byte(resp.Body), dst); err != nil {
		return errors.Wrapf(err, "%s: decoding GET %s", c.service, path)
	}
	return nil
}

// IsNotFound reports whether err was caused by a 404 of a remote service.
func IsNotFound(err error) bool {
	sErr, ok := errors.Cause(err).(*StatusError)
	return ok && sErr.StatusCode == http.StatusNotFound
}
