// Package googletasks implements service.Remote using the Google Tasks API.
//
// A list maps to a Google task list and a task to a Google task. Google has no
// theme or starred flag: writes echo them back from the submitted list, and
// reads return the default theme with every task unstarred.
package googletasks

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"todosync/internal/config"
	"todosync/internal/identity"
	"todosync/internal/logger"
	"todosync/internal/service"
)

const (
	// PageSize is the number of items per page.
	PageSize = 100

	// APITimeout is the default timeout for API calls.
	APITimeout = 5 * time.Second

	// Scope is the OAuth scope for Google Tasks.
	Scope = "https://www.googleapis.com/auth/tasks"

	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"

	// fetchConcurrency bounds parallel task fetches during ListAll.
	fetchConcurrency = 4
)

// Client implements service.Remote using Google Tasks API.
type Client struct {
	svc     *tasks.Service
	timeout time.Duration
	log     *zap.SugaredLogger
}

var _ service.Remote = (*Client)(nil)

// OAuthConfig reads oauth_client.json from the config directory.
func OAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(cfg.OAuthClientPath())
	if err != nil {
		return nil, errors.Wrap(err, "failed to read oauth_client.json")
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, Scope)
	if err != nil {
		return nil, errors.Wrap(err, "invalid oauth_client.json")
	}
	return oauthConfig, nil
}

// New creates a Google Tasks client.
// Requires oauth_client.json and token.json to exist.
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*Client, error) {
	oauthConfig, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := cfg.LoadToken()
	if err != nil {
		return nil, err
	}

	// The token source refreshes the access token as needed.
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token))

	c, err := NewWithHTTPClient(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	c.timeout = cfg.Settings.RequestTimeout
	if log != nil {
		c.log = log.With(logger.FieldComponent, "googletasks")
	}
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := tasks.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tasks service")
	}
	return &Client{
		svc:     svc,
		timeout: APITimeout,
		log:     logger.Logger.With(logger.FieldComponent, "googletasks"),
	}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithTimeout(ctx, APITimeout)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// ListAll implements service.Remote.
func (c *Client) ListAll(ctx context.Context) ([]service.List, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var remote []*tasks.TaskList
	err := c.svc.Tasklists.List().MaxResults(PageSize).Pages(ctx, func(resp *tasks.TaskLists) error {
		remote = append(remote, resp.Items...)
		return nil
	})
	if err != nil {
		return nil, wrapError(err)
	}

	lists := make([]service.List, len(remote))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, tl := range remote {
		g.Go(func() error {
			items, err := c.listTasks(gctx, tl.Id)
			if err != nil {
				return err
			}
			lists[i] = toList(tl, items)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	c.log.Debugw("Listed task lists", logger.FieldCount, len(lists))
	return lists, nil
}

// Get implements service.Remote.
func (c *Client) Get(ctx context.Context, id string) (service.List, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	tl, err := c.svc.Tasklists.Get(id).Context(ctx).Do()
	if err != nil {
		return service.List{}, wrapError(err)
	}
	items, err := c.listTasks(ctx, tl.Id)
	if err != nil {
		return service.List{}, err
	}
	return toList(tl, items), nil
}

// Create implements service.Remote.
func (c *Client) Create(ctx context.Context, l service.List) (service.List, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	tl, err := c.svc.Tasklists.Insert(&tasks.TaskList{Title: l.Title}).Context(ctx).Do()
	if err != nil {
		return service.List{}, wrapError(err)
	}
	inserted, err := c.insertTasks(ctx, tl.Id, l.Tasks)
	if err != nil {
		// The caller keeps the list provisional and retries, so a half-built
		// copy left on the server would come back as a duplicate.
		c.discard(ctx, tl.Id)
		return service.List{}, err
	}
	return echo(toList(tl, inserted), l), nil
}

// discard removes a task list on a best-effort basis. It runs on its own
// deadline since the caller's may already have expired.
func (c *Client) discard(ctx context.Context, listID string) {
	ctx, cancel := c.withTimeout(context.WithoutCancel(ctx))
	defer cancel()
	if err := c.svc.Tasklists.Delete(listID).Context(ctx).Do(); err != nil {
		c.log.Warnw("Failed to remove partially created task list",
			logger.FieldListID, listID, logger.FieldError, err)
	}
}

// Update implements service.Remote. The title is patched and the task set is
// replaced wholesale: the new tasks go in first and the previous ones are
// removed afterwards, so a failure part way leaves extra tasks rather than a
// truncated list. A retried Update clears them.
func (c *Client) Update(ctx context.Context, durableID string, l service.List) (service.List, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	tl, err := c.svc.Tasklists.Patch(durableID, &tasks.TaskList{Title: l.Title}).Context(ctx).Do()
	if err != nil {
		return service.List{}, wrapError(err)
	}

	previous, err := c.listTasks(ctx, durableID)
	if err != nil {
		return service.List{}, err
	}
	inserted, err := c.insertTasks(ctx, durableID, l.Tasks)
	if err != nil {
		return service.List{}, err
	}
	for _, t := range previous {
		if err := c.svc.Tasks.Delete(durableID, t.Id).Context(ctx).Do(); err != nil {
			return service.List{}, wrapError(err)
		}
	}
	return echo(toList(tl, inserted), l), nil
}

// Delete implements service.Remote.
func (c *Client) Delete(ctx context.Context, id string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.svc.Tasklists.Delete(id).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

func (c *Client) listTasks(ctx context.Context, listID string) ([]*tasks.Task, error) {
	var items []*tasks.Task
	err := c.svc.Tasks.List(listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			items = append(items, resp.Items...)
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}
	return items, nil
}

// insertTasks creates the tasks in order. Google inserts at the top, so each
// task after the first is placed after its predecessor.
func (c *Client) insertTasks(ctx context.Context, listID string, ts []service.Task) ([]*tasks.Task, error) {
	out := make([]*tasks.Task, 0, len(ts))
	previous := ""
	for _, t := range ts {
		call := c.svc.Tasks.Insert(listID, fromTask(t)).Context(ctx)
		if previous != "" {
			call = call.Previous(previous)
		}
		created, err := call.Do()
		if err != nil {
			return nil, wrapError(err)
		}
		out = append(out, created)
		previous = created.Id
	}
	return out, nil
}

func toList(tl *tasks.TaskList, items []*tasks.Task) service.List {
	updated := parseTime(tl.Updated)
	l := service.List{
		ID:        identity.FromServer(tl.Id),
		Title:     tl.Title,
		Tasks:     make([]service.Task, 0, len(items)),
		Theme:     service.DefaultTheme,
		CreatedAt: updated,
		UpdatedAt: updated,
	}
	for _, t := range items {
		if t.Deleted {
			continue
		}
		l.Tasks = append(l.Tasks, service.Task{
			ID:        t.Id,
			Text:      t.Title,
			Completed: t.Status == statusCompleted,
			CreatedAt: parseTime(t.Updated),
		})
	}
	return l
}

func fromTask(t service.Task) *tasks.Task {
	status := statusNeedsAction
	if t.Completed {
		status = statusCompleted
	}
	return &tasks.Task{Title: t.Text, Status: status}
}

// echo restores the fields Google cannot store from the submitted list.
func echo(saved, submitted service.List) service.List {
	saved.Theme = submitted.Theme
	if saved.Theme == "" {
		saved.Theme = service.DefaultTheme
	}
	for i := range saved.Tasks {
		if i < len(submitted.Tasks) {
			saved.Tasks[i].Starred = submitted.Tasks[i].Starred
			if !submitted.Tasks[i].CreatedAt.IsZero() {
				saved.Tasks[i].CreatedAt = submitted.Tasks[i].CreatedAt
			}
		}
	}
	if !submitted.CreatedAt.IsZero() {
		saved.CreatedAt = submitted.CreatedAt
	}
	return saved
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// wrapError classifies API errors into the service taxonomy.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return service.MarkTransport(errors.Wrap(err, "google tasks"))
	}

	switch code := apiErr.Code; {
	case code == http.StatusNotFound:
		return service.MarkNotFound(errors.Wrap(err, "google tasks"))
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return service.MarkRejected(errors.WithHint(
			errors.Wrap(err, "token expired or revoked"), "run: todosync login"))
	case code == http.StatusTooManyRequests || code >= 500:
		return service.MarkTransport(errors.Wrap(err, "google tasks"))
	default:
		return service.MarkRejected(errors.Wrap(err, "google tasks"))
	}
}
