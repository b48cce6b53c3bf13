package googletasks_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"todosync/internal/backend/googletasks"
	"todosync/internal/service"
)

// fakeTasksAPI serves the subset of the Google Tasks REST surface the client uses.
type fakeTasksAPI struct {
	mu     sync.Mutex
	lists  []*tasks.TaskList
	items  map[string][]*tasks.Task
	next   int
	status int // when non-zero every request fails with it

	// failInsertAt makes the nth task insert (1-based) fail with a 503.
	failInsertAt int
	inserts      int
}

func newFakeTasksAPI() *fakeTasksAPI {
	return &fakeTasksAPI{items: make(map[string][]*tasks.Task)}
}

func (f *fakeTasksAPI) id(prefix string) string {
	f.next++
	return fmt.Sprintf("%s%d", prefix, f.next)
}

func (f *fakeTasksAPI) findList(id string) int {
	for i, l := range f.lists {
		if l.Id == id {
			return i
		}
	}
	return -1
}

func (f *fakeTasksAPI) addList(title string, items ...*tasks.Task) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.id("L")
	f.lists = append(f.lists, &tasks.TaskList{Id: id, Title: title, Updated: "2025-03-01T12:00:00.000Z"})
	for _, t := range items {
		t.Id = f.id("T")
		f.items[id] = append(f.items[id], t)
	}
	return id
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func fail(w http.ResponseWriter, status int) {
	reply(w, status, map[string]any{"error": map[string]any{"code": status, "message": http.StatusText(status)}})
}

func (f *fakeTasksAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks/v1/users/@me/lists", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, &tasks.TaskLists{Items: f.lists})
	})
	mux.HandleFunc("POST /tasks/v1/users/@me/lists", func(w http.ResponseWriter, r *http.Request) {
		var tl tasks.TaskList
		_ = json.NewDecoder(r.Body).Decode(&tl)
		tl.Id = f.id("L")
		f.lists = append(f.lists, &tl)
		reply(w, http.StatusOK, &tl)
	})
	mux.HandleFunc("GET /tasks/v1/users/@me/lists/{id}", func(w http.ResponseWriter, r *http.Request) {
		i := f.findList(r.PathValue("id"))
		if i < 0 {
			fail(w, http.StatusNotFound)
			return
		}
		reply(w, http.StatusOK, f.lists[i])
	})
	mux.HandleFunc("PATCH /tasks/v1/users/@me/lists/{id}", func(w http.ResponseWriter, r *http.Request) {
		i := f.findList(r.PathValue("id"))
		if i < 0 {
			fail(w, http.StatusNotFound)
			return
		}
		var patch tasks.TaskList
		_ = json.NewDecoder(r.Body).Decode(&patch)
		f.lists[i].Title = patch.Title
		reply(w, http.StatusOK, f.lists[i])
	})
	mux.HandleFunc("DELETE /tasks/v1/users/@me/lists/{id}", func(w http.ResponseWriter, r *http.Request) {
		i := f.findList(r.PathValue("id"))
		if i < 0 {
			fail(w, http.StatusNotFound)
			return
		}
		f.lists = append(f.lists[:i], f.lists[i+1:]...)
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /tasks/v1/lists/{id}/tasks", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, &tasks.Tasks{Items: f.items[r.PathValue("id")]})
	})
	mux.HandleFunc("POST /tasks/v1/lists/{id}/tasks", func(w http.ResponseWriter, r *http.Request) {
		f.inserts++
		if f.inserts == f.failInsertAt {
			fail(w, http.StatusServiceUnavailable)
			return
		}
		listID := r.PathValue("id")
		var t tasks.Task
		_ = json.NewDecoder(r.Body).Decode(&t)
		t.Id = f.id("T")

		items := f.items[listID]
		at := 0
		if prev := r.URL.Query().Get("previous"); prev != "" {
			for i, it := range items {
				if it.Id == prev {
					at = i + 1
				}
			}
		}
		items = append(items[:at], append([]*tasks.Task{&t}, items[at:]...)...)
		f.items[listID] = items
		reply(w, http.StatusOK, &t)
	})
	mux.HandleFunc("DELETE /tasks/v1/lists/{id}/tasks/{task}", func(w http.ResponseWriter, r *http.Request) {
		listID := r.PathValue("id")
		items := f.items[listID]
		for i, it := range items {
			if it.Id == r.PathValue("task") {
				f.items[listID] = append(items[:i], items[i+1:]...)
				break
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.status != 0 {
			fail(w, f.status)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func newClient(t *testing.T, api *fakeTasksAPI) *googletasks.Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	c, err := googletasks.NewWithHTTPClient(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return c
}

func TestListAll(t *testing.T) {
	api := newFakeTasksAPI()
	api.addList("Home",
		&tasks.Task{Title: "milk", Status: "needsAction"},
		&tasks.Task{Title: "bread", Status: "completed"},
	)
	api.addList("Work")
	c := newClient(t, api)

	lists, err := c.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 2)

	home := lists[0]
	assert.True(t, home.ID.IsDurable())
	assert.Equal(t, "Home", home.Title)
	assert.Equal(t, service.DefaultTheme, home.Theme)
	require.Len(t, home.Tasks, 2)
	assert.Equal(t, "milk", home.Tasks[0].Text)
	assert.False(t, home.Tasks[0].Completed)
	assert.True(t, home.Tasks[1].Completed)
	assert.False(t, home.UpdatedAt.IsZero())

	assert.Equal(t, "Work", lists[1].Title)
	assert.NotNil(t, lists[1].Tasks)
}

func TestCreate_KeepsOrderAndEchoesLocalFields(t *testing.T) {
	api := newFakeTasksAPI()
	c := newClient(t, api)

	saved, err := c.Create(context.Background(), service.List{
		Title: "Groceries",
		Theme: "photo_lighthouse",
		Tasks: []service.Task{
			{ID: "a", Text: "milk", Starred: true},
			{ID: "b", Text: "eggs", Completed: true},
			{ID: "c", Text: "bread"},
		},
	})
	require.NoError(t, err)

	assert.True(t, saved.ID.IsDurable())
	assert.Equal(t, "photo_lighthouse", saved.Theme)
	require.Len(t, saved.Tasks, 3)
	assert.True(t, saved.Tasks[0].Starred)
	assert.True(t, saved.Tasks[1].Completed)

	got, err := c.Get(context.Background(), saved.ID.String())
	require.NoError(t, err)
	var texts []string
	for _, task := range got.Tasks {
		texts = append(texts, task.Text)
	}
	assert.Equal(t, []string{"milk", "eggs", "bread"}, texts)
}

func TestCreate_TaskFailureRemovesList(t *testing.T) {
	api := newFakeTasksAPI()
	api.failInsertAt = 1
	c := newClient(t, api)

	_, err := c.Create(context.Background(), service.List{
		Title: "Groceries",
		Tasks: []service.Task{{Text: "milk"}, {Text: "eggs"}},
	})
	require.Error(t, err)
	assert.True(t, service.IsTransport(err))

	lists, err := c.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lists, "a failed create must not leave a list behind")

	// A retry yields exactly one list.
	saved, err := c.Create(context.Background(), service.List{
		Title: "Groceries",
		Tasks: []service.Task{{Text: "milk"}, {Text: "eggs"}},
	})
	require.NoError(t, err)
	lists, err = c.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, saved.ID, lists[0].ID)
	assert.Len(t, lists[0].Tasks, 2)
}

func TestUpdate_TaskFailureKeepsPreviousTasks(t *testing.T) {
	api := newFakeTasksAPI()
	id := api.addList("Home",
		&tasks.Task{Title: "milk", Status: "needsAction"},
		&tasks.Task{Title: "eggs", Status: "needsAction"},
	)
	api.failInsertAt = 2
	c := newClient(t, api)

	edit := service.List{
		Title: "Home",
		Tasks: []service.Task{{Text: "milk"}, {Text: "eggs"}, {Text: "bread"}},
	}
	_, err := c.Update(context.Background(), id, edit)
	require.Error(t, err)
	assert.True(t, service.IsTransport(err))

	got, err := c.Get(context.Background(), id)
	require.NoError(t, err)
	var texts []string
	for _, task := range got.Tasks {
		texts = append(texts, task.Text)
	}
	assert.Subset(t, texts, []string{"milk", "eggs"}, "previous tasks survive a failed update")

	_, err = c.Update(context.Background(), id, edit)
	require.NoError(t, err)
	got, err = c.Get(context.Background(), id)
	require.NoError(t, err)
	texts = texts[:0]
	for _, task := range got.Tasks {
		texts = append(texts, task.Text)
	}
	assert.Equal(t, []string{"milk", "eggs", "bread"}, texts)
}

func TestUpdate_ReplacesTasks(t *testing.T) {
	api := newFakeTasksAPI()
	id := api.addList("Home", &tasks.Task{Title: "old", Status: "needsAction"})
	c := newClient(t, api)

	saved, err := c.Update(context.Background(), id, service.List{
		Title: "House",
		Tasks: []service.Task{{Text: "new", Completed: true}},
	})
	require.NoError(t, err)
	assert.Equal(t, "House", saved.Title)
	assert.Equal(t, id, saved.ID.String())

	got, err := c.Get(context.Background(), id)
	require.NoError(t, err)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, "new", got.Tasks[0].Text)
	assert.True(t, got.Tasks[0].Completed)
}

func TestDelete(t *testing.T) {
	api := newFakeTasksAPI()
	id := api.addList("Home")
	c := newClient(t, api)

	require.NoError(t, c.Delete(context.Background(), id))

	err := c.Delete(context.Background(), id)
	require.Error(t, err)
	assert.True(t, service.IsNotFound(err))
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		status    int
		rejected  bool
		notFound  bool
		transport bool
	}{
		{http.StatusNotFound, false, true, false},
		{http.StatusBadRequest, true, false, false},
		{http.StatusUnauthorized, true, false, false},
		{http.StatusForbidden, true, false, false},
		{http.StatusTooManyRequests, false, false, true},
		{http.StatusInternalServerError, false, false, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			api := newFakeTasksAPI()
			api.status = tt.status
			c := newClient(t, api)

			_, err := c.Get(context.Background(), "L1")
			require.Error(t, err)
			assert.Equal(t, tt.rejected, service.IsRejected(err), "rejected")
			assert.Equal(t, tt.notFound, service.IsNotFound(err), "not found")
			assert.Equal(t, tt.transport, service.IsTransport(err), "transport")
		})
	}
}

func TestUnreachableIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/"
	srv.Close()

	c, err := googletasks.NewWithHTTPClient(context.Background(), http.DefaultClient, option.WithEndpoint(endpoint))
	require.NoError(t, err)

	_, err = c.ListAll(context.Background())
	require.Error(t, err)
	assert.True(t, service.IsTransport(err))
}
