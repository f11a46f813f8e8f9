package gradeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/quangvd/barem/core"
)

const unreachableText = "cannot reach server"

// APIError is a rejected or failed request against the grading backend.
// Message carries the server-supplied message verbatim when there is one.
type APIError struct {
	StatusCode int // 0 for transport failures
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// IsUnreachable reports whether err is a transport-level failure rather
// than a server rejection.
func IsUnreachable(err error) bool {
	apiErr, ok := errors.Cause(err).(*APIError)
	return ok && apiErr.StatusCode == 0
}

// Client is the typed client of the remote grading backend. The session is
// injected; a 401 expires it and surfaces core.ErrSessionExpired.
type Client struct {
	base    string
	http    *http.Client
	session *core.Session
	logger  core.Logger
}

func NewClient(conf *core.Config, session *core.Session, logger core.Logger) *Client {
	return &Client{
		base:    core.NormalizeAPIBaseURL(conf.APIBaseURL),
		http:    &http.Client{Timeout: conf.RequestTimeout},
		session: session,
		logger:  logger,
	}
}

var _ core.AuthAPI = (*Client)(nil)

func (c *Client) url(path string, query url.Values) string {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do runs one JSON round trip. out may be nil when the response body does
// not matter.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "gradeapi: encoding request")
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), reqBody)
	if err != nil {
		return errors.Wrap(err, "gradeapi: building request")
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

// send finishes a prepared request: credentials, request id, response and
// error mapping. Multipart requests come here with their own content type
// already set.
func (c *Client) send(req *http.Request, out interface{}) error {
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{Message: unreachableText, Err: err}
	}
	defer resp.Body.Close()

	data, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Message: unreachableText, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Expire()
		return core.ErrSessionExpired
	}
	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Message: serverMessage(data, resp.StatusCode)}
	}
	if out == nil {
		return nil
	}
	return decode(data, out)
}

// decode unwraps the backend's {"data": ...} envelope when present; some
// endpoints answer bare payloads.
func decode(data []byte, out interface{}) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err == nil && len(env.Data) > 0 {
		data = env.Data
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "gradeapi: decoding response")
	}
	return nil
}

func serverMessage(data []byte, statusCode int) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return fmt.Sprintf("request failed (%s)", http.StatusText(statusCode))
}

func pageQuery(page, size int) url.Values {
	q := make(url.Values)
	q.Set("Page", strconv.Itoa(page))
	q.Set("Size", strconv.Itoa(size))
	return q
}
