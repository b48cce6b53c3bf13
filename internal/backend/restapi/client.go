// Package restapi implements service.Remote against the todo list HTTP API.
package restapi

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

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"todosync/internal/identity"
	"todosync/internal/logger"
	"todosync/internal/service"
)

const (
	// DefaultTimeout bounds each request when no timeout is configured.
	DefaultTimeout = 5 * time.Second

	listsPath = "todolists"
	loginPath = "auth/login"

	// maxErrorBody caps how much of an error response is read.
	maxErrorBody = 4 << 10
)

// Client implements service.Remote over HTTP.
type Client struct {
	base    *url.URL
	http    *http.Client
	token   *oauth2.Token
	timeout time.Duration
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

var _ service.Remote = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithToken authenticates every request with the bearer token.
func WithToken(tok *oauth2.Token) Option {
	return func(c *Client) { c.token = tok }
}

// WithTimeout bounds each request. A request that exceeds it is a transport failure.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:3000/api.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, errors.Wrapf(err, "invalid api url %q", baseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Newf("invalid api url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		base:    u,
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		log:     logger.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.FieldComponent, "restapi")

	if c.token != nil {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.http)
		c.http = oauth2.NewClient(ctx, oauth2.StaticTokenSource(c.token))
	}
	return c, nil
}

// wireList is a list as the server sends it. The durable id travels as _id.
type wireList struct {
	ID        string         `json:"_id"`
	Title     string         `json:"title"`
	Tasks     []service.Task `json:"tasks"`
	Theme     string         `json:"theme"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// wireBody is the request payload for create and update.
type wireBody struct {
	Title string         `json:"title"`
	Tasks []service.Task `json:"tasks"`
	Theme string         `json:"theme"`
}

func (w wireList) toList() service.List {
	tasks := w.Tasks
	if tasks == nil {
		tasks = []service.Task{}
	}
	return service.List{
		ID:        identity.FromServer(w.ID),
		Title:     w.Title,
		Tasks:     tasks,
		Theme:     w.Theme,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func bodyOf(l service.List) wireBody {
	tasks := l.Tasks
	if tasks == nil {
		tasks = []service.Task{}
	}
	return wireBody{Title: l.Title, Tasks: tasks, Theme: l.Theme}
}

// ListAll implements service.Remote.
func (c *Client) ListAll(ctx context.Context) ([]service.List, error) {
	var wire []wireList
	if err := c.do(ctx, http.MethodGet, &url.URL{Path: listsPath}, nil, &wire); err != nil {
		return nil, err
	}
	lists := make([]service.List, 0, len(wire))
	for _, w := range wire {
		lists = append(lists, w.toList())
	}
	return lists, nil
}

// Get implements service.Remote.
func (c *Client) Get(ctx context.Context, id string) (service.List, error) {
	ref, err := listRef(id)
	if err != nil {
		return service.List{}, err
	}
	var w wireList
	if err := c.do(ctx, http.MethodGet, ref, nil, &w); err != nil {
		return service.List{}, err
	}
	return w.toList(), nil
}

// Create implements service.Remote.
func (c *Client) Create(ctx context.Context, l service.List) (service.List, error) {
	var w wireList
	if err := c.do(ctx, http.MethodPost, &url.URL{Path: listsPath}, bodyOf(l), &w); err != nil {
		return service.List{}, err
	}
	return w.toList(), nil
}

// Update implements service.Remote.
func (c *Client) Update(ctx context.Context, durableID string, l service.List) (service.List, error) {
	ref, err := listRef(durableID)
	if err != nil {
		return service.List{}, err
	}
	var w wireList
	if err := c.do(ctx, http.MethodPut, ref, bodyOf(l), &w); err != nil {
		return service.List{}, err
	}
	return w.toList(), nil
}

// Delete implements service.Remote.
func (c *Client) Delete(ctx context.Context, id string) error {
	ref, err := listRef(id)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, ref, nil, nil)
}

// listRef addresses one list. The id is escaped into a single path segment,
// so a slash in it cannot reach another route.
func listRef(id string) (*url.URL, error) {
	if id == "" || id == "." || id == ".." {
		return nil, service.MarkRejected(errors.Newf("invalid list id %q", id))
	}
	return &url.URL{
		Path:    listsPath + "/" + id,
		RawPath: listsPath + "/" + url.PathEscape(id),
	}, nil
}

// Login exchanges account credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*oauth2.Token, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, &url.URL{Path: loginPath}, req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, service.MarkRejected(errors.New("login response carried no token"))
	}
	return &oauth2.Token{AccessToken: resp.Token, TokenType: "Bearer"}, nil
}

func (c *Client) do(ctx context.Context, method string, ref *url.URL, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return service.MarkTransport(errors.Wrap(err, "rate limiter"))
		}
	}

	target := c.base.ResolveReference(ref)

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return service.MarkRejected(errors.Wrap(err, "failed to encode request"))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return service.MarkRejected(errors.Wrap(err, "failed to build request"))
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debugw("Request failed",
			logger.FieldMethod, method,
			logger.FieldPath, target.Path,
			logger.FieldError, err)
		return service.MarkTransport(errors.Wrapf(err, "%s %s", method, target.Path))
	}
	defer resp.Body.Close()

	c.log.Debugw("Request done",
		logger.FieldMethod, method,
		logger.FieldPath, target.Path,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(method, target.Path, resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		// A truncated body is a broken connection, not a refusal.
		return service.MarkTransport(errors.Wrapf(err, "%s %s: failed to decode response", method, target.Path))
	}
	return nil
}

// statusError classifies a non-2xx response.
func statusError(method, path string, resp *http.Response) error {
	msg := http.StatusText(resp.StatusCode)
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		msg = payload.Message
	}

	err := errors.Newf("%s %s: status %d: %s", method, path, resp.StatusCode, msg)
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return service.MarkNotFound(err)
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return service.MarkRejected(errors.WithHint(err, "run: todosync login"))
	case resp.StatusCode == http.StatusRequestTimeout, resp.StatusCode == http.StatusTooManyRequests:
		return service.MarkTransport(err)
	case resp.StatusCode >= 500:
		return service.MarkTransport(err)
	default:
		return service.MarkRejected(err)
	}
}

// String describes the client for logs.
func (c *Client) String() string {
	return fmt.Sprintf("restapi(%s)", c.base)
}
