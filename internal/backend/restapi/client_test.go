package restapi_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/oauth2"

	"todosync/internal/backend/restapi"
	"todosync/internal/identity"
	"todosync/internal/service"
)

type recorded struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

type recorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *recorder) all() []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recorded(nil), r.calls...)
}

func newServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := recorded{Method: r.Method, Path: r.URL.EscapedPath(), Auth: r.Header.Get("Authorization")}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			assert.NoError(t, json.Unmarshal(data, &call.Body))
		}
		rec.mu.Lock()
		rec.calls = append(rec.calls, call)
		rec.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func newClient(t *testing.T, srv *httptest.Server, opts ...restapi.Option) *restapi.Client {
	t.Helper()
	opts = append([]restapi.Option{restapi.WithLogger(zaptest.NewLogger(t).Sugar())}, opts...)
	c, err := restapi.New(srv.URL+"/api", opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := restapi.New("ftp://example.com")
	assert.Error(t, err)

	_, err = restapi.New("://nope")
	assert.Error(t, err)
}

func TestListAll(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"_id": "b2", "title": "Work", "theme": "solid_black", "tasks": []any{
				map[string]any{"id": "t1", "text": "report", "completed": true, "starred": false},
			}, "createdAt": "2025-02-01T10:00:00Z"},
			{"_id": "a1", "title": "Home", "theme": "photo_lighthouse"},
		})
	})
	c := newClient(t, srv, restapi.WithToken(&oauth2.Token{AccessToken: "secret"}))

	lists, err := c.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 2)

	assert.Equal(t, "b2", lists[0].ID.String())
	assert.True(t, lists[0].ID.IsDurable())
	assert.Equal(t, "Work", lists[0].Title)
	require.Len(t, lists[0].Tasks, 1)
	assert.True(t, lists[0].Tasks[0].Completed)
	assert.Equal(t, time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC), lists[0].CreatedAt.UTC())
	assert.NotNil(t, lists[1].Tasks)

	require.Len(t, calls.all(), 1)
	assert.Equal(t, "GET", calls.all()[0].Method)
	assert.Equal(t, "/api/todolists", calls.all()[0].Path)
	assert.Equal(t, "Bearer secret", calls.all()[0].Auth)
}

func TestCreate_SendsBodyWithoutID(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"_id": "abc123", "title": "Groceries", "theme": "solid_black", "tasks": []any{}})
	})
	c := newClient(t, srv)

	saved, err := c.Create(context.Background(), service.List{
		ID:    identity.Parse("temp_1000"),
		Title: "Groceries",
		Theme: "solid_black",
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", saved.ID.String())

	require.Len(t, calls.all(), 1)
	call := calls.all()[0]
	assert.Equal(t, "POST", call.Method)
	assert.Equal(t, "/api/todolists", call.Path)
	assert.Equal(t, "Groceries", call.Body["title"])
	assert.Equal(t, []any{}, call.Body["tasks"])
	assert.NotContains(t, call.Body, "_id")
	assert.NotContains(t, call.Body, "id")
	assert.Empty(t, call.Auth)
}

func TestUpdate_UsesDurablePath(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"_id": "abc123", "title": "Renamed"})
	})
	c := newClient(t, srv)

	saved, err := c.Update(context.Background(), "abc123", service.List{ID: identity.Parse("abc123"), Title: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", saved.Title)

	require.Len(t, calls.all(), 1)
	assert.Equal(t, "PUT", calls.all()[0].Method)
	assert.Equal(t, "/api/todolists/abc123", calls.all()[0].Path)
}

func TestGetAndDelete(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"_id": "abc123", "title": "Groceries"})
		case http.MethodDelete:
			writeJSON(w, http.StatusOK, map[string]any{"message": "Todo list deleted successfully"})
		}
	})
	c := newClient(t, srv)

	l, err := c.Get(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", l.Title)

	require.NoError(t, c.Delete(context.Background(), "abc123"))
	require.Len(t, calls.all(), 2)
	assert.Equal(t, "/api/todolists/abc123", calls.all()[1].Path)
}

func TestListIDStaysInOneSegment(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"_id": "x", "title": "Groceries"})
	})
	c := newClient(t, srv)
	ctx := context.Background()

	_, err := c.Get(ctx, "a/b")
	require.NoError(t, err)
	_, err = c.Update(ctx, "../auth/login", service.List{Title: "Groceries"})
	require.NoError(t, err)
	require.NoError(t, c.Delete(ctx, "a b?c"))

	got := calls.all()
	require.Len(t, got, 3)
	assert.Equal(t, "/api/todolists/a%2Fb", got[0].Path)
	assert.Equal(t, "/api/todolists/..%2Fauth%2Flogin", got[1].Path)
	assert.Equal(t, "/api/todolists/a%20b%3Fc", got[2].Path)
}

func TestDotListIDsAreRejected(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})
	c := newClient(t, srv)

	for _, id := range []string{"", ".", ".."} {
		_, err := c.Get(context.Background(), id)
		require.Error(t, err, "id %q", id)
		assert.True(t, service.IsRejected(err), "id %q", id)

		err = c.Delete(context.Background(), id)
		assert.True(t, service.IsRejected(err), "id %q", id)
	}
	assert.Empty(t, calls.all())
}

func TestStatusClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		rejected  bool
		notFound  bool
		transport bool
		message   string
	}{
		{"not found", http.StatusNotFound, false, true, false, "Todo list not found"},
		{"bad request", http.StatusBadRequest, true, false, false, "title is required"},
		{"unauthorized", http.StatusUnauthorized, true, false, false, "No token"},
		{"server error", http.StatusInternalServerError, false, false, true, "Server error"},
		{"unavailable", http.StatusServiceUnavailable, false, false, true, "Service Unavailable"},
		{"too many", http.StatusTooManyRequests, false, false, true, "slow down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, map[string]any{"message": tt.message})
			})
			c := newClient(t, srv)

			_, err := c.Get(context.Background(), "abc123")
			require.Error(t, err)
			assert.Equal(t, tt.rejected, service.IsRejected(err), "rejected")
			assert.Equal(t, tt.notFound, service.IsNotFound(err), "not found")
			assert.Equal(t, tt.transport, service.IsTransport(err), "transport")
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestUnauthorizedCarriesLoginHint(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Token is not valid"})
	})
	c := newClient(t, srv)

	_, err := c.ListAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, errors.FlattenHints(err), "todosync login")
}

func TestUnreachableIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := restapi.New(url)
	require.NoError(t, err)

	_, err = c.ListAll(context.Background())
	require.Error(t, err)
	assert.True(t, service.IsTransport(err))
	assert.False(t, service.IsRejected(err))
}

func TestTimeoutIsTransport(t *testing.T) {
	release := make(chan struct{})
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	c := newClient(t, srv, restapi.WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := c.Create(context.Background(), service.List{Title: "Slow"})
	require.Error(t, err)
	assert.True(t, service.IsTransport(err))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestTruncatedBodyIsTransport(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"_id": "a1", "title": `)
	})
	c := newClient(t, srv)

	_, err := c.ListAll(context.Background())
	require.Error(t, err)
	assert.True(t, service.IsTransport(err))
}

func TestRateLimitStillServes(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []any{})
	})
	c := newClient(t, srv, restapi.WithRateLimit(1000))

	for i := 0; i < 3; i++ {
		_, err := c.ListAll(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, calls.all(), 3)
}

func TestLogin(t *testing.T) {
	srv, calls := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]any{"token": "jwt-token", "user": map[string]any{"id": "u1"}})
	})
	c := newClient(t, srv)

	tok, err := c.Login(context.Background(), "me@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", tok.AccessToken)
	assert.Equal(t, "Bearer", tok.TokenType)

	require.Len(t, calls.all(), 1)
	assert.Equal(t, "/api/auth/login", calls.all()[0].Path)
	assert.Equal(t, "me@example.com", calls.all()[0].Body["email"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Invalid credentials"})
	})
	c := newClient(t, srv)

	_, err := c.Login(context.Background(), "me@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, service.IsRejected(err))
	assert.Contains(t, err.Error(), "Invalid credentials")
}
