package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	token, user := app.register(t, "Alice", "alice@example.com", "secret123")

	task := app.createTask(t, token, "Buy milk", "2 liters")
	assert.Equal(t, "Buy milk", task["title"])
	assert.Equal(t, "2 liters", task["description"])
	assert.Equal(t, false, task["completed"])
	assert.Equal(t, user["id"], task["owner_id"])

	createdAt, err := time.Parse(time.RFC3339, task["created_at"].(string))
	require.NoError(t, err)
	updatedAt, err := time.Parse(time.RFC3339, task["updated_at"].(string))
	require.NoError(t, err)
	assert.False(t, updatedAt.Before(createdAt))

	// List shows the single task.
	resp := app.do(t, http.MethodGet, "/todos", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.EqualValues(t, 1, body["total"])
	assert.Len(t, body["data"], 1)

	taskID := task["id"].(string)

	// Update with surrounding whitespace stores the trimmed title and
	// bumps updated_at.
	time.Sleep(20 * time.Millisecond)
	payload, _ := json.Marshal(map[string]interface{}{"title": "  New  ", "completed": true})
	resp = app.do(t, http.MethodPut, "/todos/"+taskID, token, bytes.NewReader(payload))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody(t, resp)
	assert.Equal(t, "New", updated["title"])
	assert.Equal(t, true, updated["completed"])
	assert.Equal(t, "2 liters", updated["description"])

	newUpdatedAt, err := time.Parse(time.RFC3339, updated["updated_at"].(string))
	require.NoError(t, err)
	assert.True(t, newUpdatedAt.After(updatedAt))

	// Get returns the updated task.
	resp = app.do(t, http.MethodGet, "/todos/"+taskID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeBody(t, resp)
	assert.Equal(t, "New", fetched["title"])

	// Delete removes it.
	resp = app.do(t, http.MethodDelete, "/todos/"+taskID, token, nil)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = app.do(t, http.MethodGet, "/todos", token, nil)
	body = decodeBody(t, resp)
	assert.EqualValues(t, 0, body["total"])

	resp = app.do(t, http.MethodGet, "/todos/"+taskID, token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateTaskMissingTitle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	token, _ := app.register(t, "Alice", "alice@example.com", "secret123")

	for _, payload := range []string{`{}`, `{"title":""}`, `{"title":"   "}`} {
		resp := app.do(t, http.MethodPost, "/todos", token, strings.NewReader(payload))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Missing required field: title", body["error"])
	}
}

func TestCrossUserIsolation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	tokenA, _ := app.register(t, "Alice", "alice@example.com", "secret123")
	tokenB, _ := app.register(t, "Bob", "bob@example.com", "secret456")

	taskA := app.createTask(t, tokenA, "Alice's task", "")
	taskID := taskA["id"].(string)

	// Bob cannot see Alice's task in his list.
	resp := app.do(t, http.MethodGet, "/todos", tokenB, nil)
	body := decodeBody(t, resp)
	assert.EqualValues(t, 0, body["total"])

	// Updating or deleting someone else's existing task is forbidden,
	// never reported as missing.
	payload, _ := json.Marshal(map[string]interface{}{"completed": true})
	resp = app.do(t, http.MethodPut, "/todos/"+taskID, tokenB, bytes.NewReader(payload))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	forbidden := decodeBody(t, resp)
	assert.Equal(t, "Forbidden", forbidden["message"])

	resp = app.do(t, http.MethodDelete, "/todos/"+taskID, tokenB, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// A genuinely unknown id is not found.
	resp = app.do(t, http.MethodDelete, "/todos/"+uuid.NewString(), tokenB, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Alice's task is untouched.
	resp = app.do(t, http.MethodGet, "/todos/"+taskID, tokenA, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	fetched := decodeBody(t, resp)
	assert.Equal(t, false, fetched["completed"])
}

func TestSearchTasks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	token, _ := app.register(t, "Alice", "alice@example.com", "secret123")

	for _, title := range []string{"Buy milk", "Buy eggs", "Clean house"} {
		app.createTask(t, token, title, "")
		time.Sleep(20 * time.Millisecond)
	}

	resp := app.do(t, http.MethodGet, "/todos?search=buy", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.EqualValues(t, 2, body["total"])

	items := body["data"].([]interface{})
	require.Len(t, items, 2)

	// Default order is created_at descending: the later "Buy eggs" first.
	first := items[0].(map[string]interface{})
	second := items[1].(map[string]interface{})
	assert.Equal(t, "Buy eggs", first["title"])
	assert.Equal(t, "Buy milk", second["title"])

	// Search also matches descriptions.
	app.createTask(t, token, "Errands", "buy stamps at the post office")
	resp = app.do(t, http.MethodGet, "/todos?search=buy", token, nil)
	body = decodeBody(t, resp)
	assert.EqualValues(t, 3, body["total"])
}

func TestCompletedFilter(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	token, _ := app.register(t, "Alice", "alice@example.com", "secret123")

	done := app.createTask(t, token, "Done task", "")
	app.createTask(t, token, "Open task", "")

	payload, _ := json.Marshal(map[string]interface{}{"completed": true})
	resp := app.do(t, http.MethodPut, "/todos/"+done["id"].(string), token, bytes.NewReader(payload))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = app.do(t, http.MethodGet, "/todos?completed=banana", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Invalid 'completed' query parameter, use true/false", body["error"])

	resp = app.do(t, http.MethodGet, "/todos?completed=true", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	assert.EqualValues(t, 1, body["total"])
	items := body["data"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Done task", items[0].(map[string]interface{})["title"])

	resp = app.do(t, http.MethodGet, "/todos?completed=false", token, nil)
	body = decodeBody(t, resp)
	assert.EqualValues(t, 1, body["total"])
}

// TestPaginationIntegrity seeds rows with an identical created_at so the
// primary sort key alone cannot order them; pages must still cover every
// task exactly once.
func TestPaginationIntegrity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	token, user := app.register(t, "Alice", "alice@example.com", "secret123")
	ownerID := user["id"].(string)

	const total = 23
	now := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < total; i++ {
		_, err := app.DB.Exec(
			`INSERT INTO tasks (id, owner_id, title, description, completed, created_at, updated_at)
			 VALUES ($1, $2, $3, '', FALSE, $4, $4)`,
			uuid.New(), ownerID, fmt.Sprintf("Task %02d", i), now,
		)
		require.NoError(t, err)
	}

	const limit = 5
	seen := make(map[string]bool)
	pages := (total + limit - 1) / limit
	for page := 1; page <= pages; page++ {
		resp := app.do(t, http.MethodGet, fmt.Sprintf("/todos?page=%d&limit=%d", page, limit), token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)

		assert.EqualValues(t, total, body["total"])
		assert.EqualValues(t, page, body["page"])
		assert.EqualValues(t, limit, body["limit"])

		for _, item := range body["data"].([]interface{}) {
			id := item.(map[string]interface{})["id"].(string)
			assert.False(t, seen[id], "task %s appeared on more than one page", id)
			seen[id] = true
		}
	}
	assert.Len(t, seen, total)

	// An out-of-range limit silently resets to the default of 10.
	resp := app.do(t, http.MethodGet, "/todos?limit=1000", token, nil)
	body := decodeBody(t, resp)
	assert.EqualValues(t, 10, body["limit"])
	assert.Len(t, body["data"], 10)
}

func TestSortOptions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	token, _ := app.register(t, "Alice", "alice@example.com", "secret123")

	for _, title := range []string{"banana", "apple", "cherry"} {
		app.createTask(t, token, title, "")
		time.Sleep(20 * time.Millisecond)
	}

	titles := func(body map[string]interface{}) []string {
		var out []string
		for _, item := range body["data"].([]interface{}) {
			out = append(out, item.(map[string]interface{})["title"].(string))
		}
		return out
	}

	resp := app.do(t, http.MethodGet, "/todos?sort=title&order=asc", token, nil)
	body := decodeBody(t, resp)
	assert.Equal(t, []string{"apple", "banana", "cherry"}, titles(body))

	resp = app.do(t, http.MethodGet, "/todos?sort=title&order=desc", token, nil)
	body = decodeBody(t, resp)
	assert.Equal(t, []string{"cherry", "banana", "apple"}, titles(body))

	// An unknown sort key silently falls back to created_at descending.
	resp = app.do(t, http.MethodGet, "/todos?sort=bogus", token, nil)
	body = decodeBody(t, resp)
	assert.Equal(t, []string{"cherry", "apple", "banana"}, titles(body))
}

func TestGetMe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	token, user := app.register(t, "Alice", "alice@example.com", "secret123")

	resp := app.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decodeBody(t, resp)
	assert.Equal(t, user["id"], me["id"])
	assert.Equal(t, "alice@example.com", me["email"])
	assert.Equal(t, "Alice", me["name"])

	resp = app.do(t, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Equal(t, "Missing or invalid token", body["error"])
}
