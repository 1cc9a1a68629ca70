package apisvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/escola/core"
)

const unexpectedError = "Ocorreu um erro inesperado."

// Error is returned for every non-2xx response; its message is meant for humans.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	return e.Detail
}

// Client talks JSON to the student records REST backend.
type Client struct {
	baseURL string
	rest    *rest.Client
}

// NewClient returns a client for the API rooted at baseURL (eg. http://127.0.0.1:8000/api).
// A zero timeout never times out.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}
}

func NewClientFromConfig(conf *core.Config) *Client {
	return NewClient(conf.Client.APIBase, conf.Client.Timeout)
}

func (c *Client) BaseURL() string { return c.baseURL }

// Request sends body (when not nil) as JSON and decodes a successful response into out (when not nil).
// 204 responses are never decoded. Non-2xx responses become an *Error.
func (c *Client) Request(ctx context.Context, method rest.Method, path string, body, out interface{}) error {
	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + path,
		Headers: map[string]string{"Accept": "application/json"},
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		req.Body = data
		req.Headers["Content-Type"] = "application/json"
	}

	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return errorFromResponse(res)
	}
	if res.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Body), out); err != nil {
		return errors.Wrapf(err, "decoding %s %s response", method, path)
	}
	return nil
}

// errorFromResponse extracts the human-readable message of a failed response:
// a string `detail`, else the JSON of a non-string `detail`, else the JSON body, else the status text.
func errorFromResponse(res *rest.Response) *Error {
	apiErr := &Error{StatusCode: res.StatusCode, Detail: http.StatusText(res.StatusCode)}
	if apiErr.Detail == "" {
		apiErr.Detail = unexpectedError
	}

	var payload interface{}
	if err := json.Unmarshal([]byte(res.Body), &payload); err != nil {
		return apiErr
	}
	if obj, ok := payload.(map[string]interface{}); ok {
		switch detail := obj["detail"].(type) {
		case string:
			if detail != "" {
				apiErr.Detail = detail
				return apiErr
			}
		case nil:
		default:
			if data, err := json.Marshal(detail); err == nil {
				apiErr.Detail = string(data)
				return apiErr
			}
		}
	}
	if data, err := json.Marshal(payload); err == nil {
		apiErr.Detail = string(data)
	}
	return apiErr
}

// StatusCode returns the HTTP status of an *Error (0 for any other error).
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func studentPath(id string) string {
	return fmt.Sprintf("/estudantes/%s", url.PathEscape(id))
}
