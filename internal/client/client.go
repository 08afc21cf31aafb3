// Package client is the HTTP and WebSocket client behind the vpnadmin CLI and TUI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const maxResponseBytes = 8 << 20

// Options configures a Client. ServerURL falls back to the session's server.
type Options struct {
	ServerURL  string
	Session    *Session
	Timeout    time.Duration
	Language   string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to one vpnadmin server on behalf of the operator in Session.
type Client struct {
	serverURL *url.URL
	session   *Session
	http      *http.Client
	language  string
	logger    *slog.Logger
}

// New validates the server URL and builds a client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.ServerURL)
	if raw == "" && opts.Session != nil {
		raw = opts.Session.ServerURL
	}
	if raw == "" {
		return nil, errors.New("server url is required / 缺少服务端地址")
	}
	u, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "parse server url %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Newf("server url %q must use http or https", raw)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		serverURL: u,
		session:   opts.Session,
		http:      httpClient,
		language:  opts.Language,
		logger:    logger,
	}, nil
}

// ServerURL returns the normalised base URL.
func (c *Client) ServerURL() string {
	return c.serverURL.String()
}

// Session returns the session the client authenticates with (may be nil).
func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) token() string {
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.serverURL
	u.Path = strings.TrimRight(u.Path, "/") + "/api" + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends one JSON request. out receives the whole response body.
// Requests are never retried.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return errors.Wrap(err, "read response")
	}
	c.logger.Debug("api call", "method", method, "path", path, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrapf(err, "decode %s %s response", method, path)
	}
	return nil
}

type envelope[T any] struct {
	Data    T      `json:"data"`
	Total   int    `json:"total"`
	Message string `json:"message"`
	Deleted bool   `json:"deleted"`
}

func getData[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var env envelope[T]
	if err := c.do(ctx, http.MethodGet, path, query, nil, &env); err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

// Mutation is the confirmation message plus the stored entity.
type Mutation[T any] struct {
	Message string
	Entity  T
}

// Deletion reports whether a delete removed anything.
type Deletion struct {
	Message string
	Deleted bool
}

func mutate[T any](ctx context.Context, c *Client, method, path string, body any) (Mutation[T], error) {
	var env envelope[T]
	if err := c.do(ctx, method, path, nil, body, &env); err != nil {
		return Mutation[T]{}, err
	}
	return Mutation[T]{Message: env.Message, Entity: env.Data}, nil
}

// SessionInfo is the server's view of the current token.
type SessionInfo struct {
	Subject   string    `json:"subject"`
	SessionID string    `json:"sessionId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Whoami asks the server to validate the current token.
func (c *Client) Whoami(ctx context.Context) (SessionInfo, error) {
	return getData[SessionInfo](ctx, c, "/session", nil)
}

// Logout revokes the token server-side and clears the local session.
// The local session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodDelete, "/session", nil, nil, nil)
	if c.session != nil {
		if clearErr := c.session.Clear(); clearErr != nil {
			return errors.CombineErrors(err, clearErr)
		}
	}
	if IsUnauthorized(err) {
		return nil
	}
	return err
}
