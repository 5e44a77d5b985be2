package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/dmehra2102/TodoDesk/internal/app"
	"github.com/dmehra2102/TodoDesk/internal/domain"
	"github.com/dmehra2102/TodoDesk/internal/infrastructure/config"
	"github.com/dmehra2102/TodoDesk/internal/infrastructure/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// localRelay serves the CLI straight from a store, skipping the network.
type localRelay struct {
	*app.TaskService
	closed bool
}

func (l *localRelay) Close() error {
	l.closed = true
	return nil
}

func setupCLI(t *testing.T) *localRelay {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_DIR", dir)
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("TODO_ENV_FILE", filepath.Join(dir, "missing.env"))

	repo, err := sqlite.Open(context.Background(), config.StoreConfig{
		DataDir: dir,
		Path:    filepath.Join(dir, "todos.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	backend := &localRelay{TaskService: app.NewTaskService(repo, zap.NewNop())}

	previous := connect
	connect = func(*config.Config, string) (Relay, error) { return backend, nil }
	t.Cleanup(func() { connect = previous })
	return backend
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := Execute(context.Background(), &out, &errOut, args...)
	return out.String(), err
}

func listTasks(t *testing.T) []taskView {
	t.Helper()
	out, err := run(t, "list", "--output", "json")
	require.NoError(t, err)
	var views []taskView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	return views
}

func TestAddAndList(t *testing.T) {
	backend := setupCLI(t)

	out, err := run(t, "add", "buy", "milk")
	require.NoError(t, err)
	assert.Contains(t, out, "Added task buy milk")
	_, err = run(t, "add", "walk dog")
	require.NoError(t, err)

	views := listTasks(t)
	require.Len(t, views, 2)
	assert.Equal(t, "buy milk", views[0].Text)
	assert.Equal(t, 0, views[0].Order)
	assert.Equal(t, "walk dog", views[1].Text)
	assert.Equal(t, 1, views[1].Order)
	assert.True(t, backend.closed)

	out, err = run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "buy milk")
	assert.Contains(t, out, "[ ]")
}

func TestListEmpty(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No tasks found.")

	out, err = run(t, "list", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}

func TestToggleEditByPrefix(t *testing.T) {
	setupCLI(t)
	_, err := run(t, "add", "buy milk")
	require.NoError(t, err)
	id := listTasks(t)[0].ID

	_, err = run(t, "toggle", id[:6])
	require.NoError(t, err)
	_, err = run(t, "edit", id, "  buy", "oat milk  ")
	require.NoError(t, err)

	views := listTasks(t)
	require.Len(t, views, 1)
	assert.True(t, views[0].Completed)
	assert.Equal(t, "buy oat milk", views[0].Text)

	_, err = run(t, "edit", id, "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyText)
	assert.Equal(t, "buy oat milk", listTasks(t)[0].Text)
}

func TestMoveAndRemove(t *testing.T) {
	setupCLI(t)
	for _, text := range []string{"a", "b", "c"} {
		_, err := run(t, "add", text)
		require.NoError(t, err)
	}
	views := listTasks(t)
	c := views[2].ID

	_, err := run(t, "move", c, "1")
	require.NoError(t, err)
	views = listTasks(t)
	assert.Equal(t, []string{"c", "a", "b"}, texts(views))

	_, err = run(t, "rm", views[1].ID)
	require.NoError(t, err)
	views = listTasks(t)
	assert.Equal(t, []string{"c", "b"}, texts(views))
	assert.Equal(t, 0, views[0].Order)
	assert.Equal(t, 1, views[1].Order)

	_, err = run(t, "move", c, "0")
	assert.Error(t, err)
}

func TestUnknownReference(t *testing.T) {
	setupCLI(t)

	_, err := run(t, "toggle", "nope")
	assert.Error(t, err)
}

func TestClearRequiresConfirmation(t *testing.T) {
	setupCLI(t)
	_, err := run(t, "add", "a")
	require.NoError(t, err)

	_, err = run(t, "clear")
	assert.Error(t, err)
	assert.Len(t, listTasks(t), 1)

	out, err := run(t, "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "All tasks cleared")
	assert.Empty(t, listTasks(t))
}

func TestStatusYAML(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "status", "-o", "yaml")
	require.NoError(t, err)

	var view statusView
	require.NoError(t, yaml.Unmarshal([]byte(out), &view))
	assert.True(t, view.DBExists)
	assert.True(t, view.TableExists)
}

func TestInvalidOutputFormat(t *testing.T) {
	setupCLI(t)

	_, err := run(t, "list", "--output", "xml")
	assert.ErrorContains(t, err, "invalid output format")
}

func texts(views []taskView) []string {
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = v.Text
	}
	return out
}
