package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmehra2102/TodoDesk/internal/app"
	"github.com/dmehra2102/TodoDesk/internal/domain"
	"github.com/dmehra2102/TodoDesk/internal/infrastructure/config"
	"github.com/dmehra2102/TodoDesk/internal/infrastructure/sqlite"
	"github.com/dmehra2102/TodoDesk/internal/interceptors"
	"github.com/dmehra2102/TodoDesk/pkg/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startRelay(t *testing.T, backend Backend, opts ...grpc.ServerOption) *bufconn.Listener {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(opts...)
	RegisterRelayServer(srv, NewServer(backend))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis
}

func dialRelay(t *testing.T, lis *bufconn.Listener, opts ...ClientOption) *Client {
	t.Helper()
	opts = append(opts, WithDialOptions(grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})))
	client, err := Dial("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newStoreBackend(t *testing.T) *app.TaskService {
	t.Helper()
	dir := t.TempDir()
	repo, err := sqlite.Open(context.Background(), config.StoreConfig{
		DataDir: dir,
		Path:    filepath.Join(dir, "todos.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return app.NewTaskService(repo, zap.NewNop())
}

func TestRelay_EndToEnd(t *testing.T) {
	client := dialRelay(t, startRelay(t, newStoreBackend(t)))
	ctx := context.Background()
	createdAt := time.Date(2026, 10, 14, 7, 45, 12, 345000000, time.UTC)

	a, err := client.Add(ctx, domain.Task{ID: "A", Text: "buy milk", CreatedAt: createdAt})
	require.NoError(t, err)
	assert.Equal(t, 0, a.Order)
	b, err := client.Add(ctx, domain.Task{ID: "B", Text: "walk dog", CreatedAt: createdAt})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Order)

	tasks, err := client.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "A", tasks[0].ID)
	assert.Equal(t, "buy milk", tasks[0].Text)
	assert.True(t, createdAt.Equal(tasks[0].CreatedAt))

	changed, err := client.UpdateOrder(ctx, []domain.OrderEntry{{ID: "B", Order: 0}, {ID: "A", Order: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	require.NoError(t, client.Toggle(ctx, "A", true))
	require.NoError(t, client.Edit(ctx, "B", "  walk the dog "))

	tasks, err = client.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "B", tasks[0].ID)
	assert.Equal(t, "walk the dog", tasks[0].Text)
	assert.True(t, tasks[1].Completed)

	require.NoError(t, client.Delete(ctx, "A"))
	tasks, err = client.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "B", tasks[0].ID)

	status, err := client.GetStatus(ctx)
	require.NoError(t, err)
	assert.True(t, status.DBExists)
	assert.True(t, status.TableExists)

	require.NoError(t, client.ClearAll(ctx))
	tasks, err = client.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestRelay_PropagatesFailureKinds(t *testing.T) {
	client := dialRelay(t, startRelay(t, newStoreBackend(t)))
	ctx := context.Background()

	_, err := client.Add(ctx, domain.Task{ID: "A", Text: "a"})
	require.NoError(t, err)

	err = client.Toggle(ctx, "missing", true)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.Equal(t, codes.NotFound, status.Code(err))

	assert.ErrorIs(t, client.Edit(ctx, "A", "   "), domain.ErrEmptyText)
	assert.ErrorIs(t, client.Delete(ctx, "missing"), domain.ErrTaskNotFound)

	_, err = client.Add(ctx, domain.Task{ID: "A", Text: "again"})
	assert.ErrorIs(t, err, domain.ErrTaskExists)

	_, err = client.UpdateOrder(ctx, []domain.OrderEntry{{ID: "A", Order: 0}, {ID: "A", Order: 1}})
	assert.ErrorIs(t, err, domain.ErrInvalidOrder)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, OpUpdateOrder, remote.Op)
	assert.Equal(t, codes.InvalidArgument, remote.Code)
}

// stubBackend returns err from every call.
type stubBackend struct{ err error }

func (s stubBackend) GetAll(context.Context) ([]domain.Task, error) { return nil, s.err }
func (s stubBackend) Add(context.Context, domain.Task) (domain.Task, error) {
	return domain.Task{}, s.err
}
func (s stubBackend) Toggle(context.Context, string, bool) error { return s.err }
func (s stubBackend) Edit(context.Context, string, string) error { return s.err }
func (s stubBackend) Delete(context.Context, string) error       { return s.err }
func (s stubBackend) UpdateOrder(context.Context, []domain.OrderEntry) (int64, error) {
	return 0, s.err
}
func (s stubBackend) ClearAll(context.Context) error { return s.err }
func (s stubBackend) GetStatus(context.Context) (domain.StoreStatus, error) {
	return domain.StoreStatus{}, s.err
}

func TestRelay_StoreFailure(t *testing.T) {
	storeErr := domain.NewStoreError("write", errors.New("disk I/O error"))
	client := dialRelay(t, startRelay(t, stubBackend{err: storeErr}))

	err := client.Toggle(context.Background(), "A", true)
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.Contains(t, err.Error(), "disk I/O error")
}

func TestRelay_UnknownFailureIsInternal(t *testing.T) {
	client := dialRelay(t, startRelay(t, stubBackend{err: errors.New("surprise")}))

	err := client.Delete(context.Background(), "A")
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.NotErrorIs(t, err, domain.ErrStore)
}

func TestRelay_TokenAuth(t *testing.T) {
	issuer := auth.NewTokenIssuer("s3cret", time.Hour)
	lis := startRelay(t, newStoreBackend(t), grpc.ChainUnaryInterceptor(interceptors.AuthInterceptor(issuer)))

	_, err := dialRelay(t, lis).GetAll(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	token, err := issuer.Issue("test")
	require.NoError(t, err)
	_, err = dialRelay(t, lis, WithToken(token)).GetAll(context.Background())
	assert.NoError(t, err)
}

func TestWireShape(t *testing.T) {
	data, err := json.Marshal(TaskMessage{
		ID:        "A",
		Text:      "buy milk",
		Completed: true,
		CreatedAt: time.Date(2025, 4, 12, 18, 22, 7, 415000000, time.UTC),
		Order:     3,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"A","text":"buy milk","completed":true,"createdAt":"2025-04-12T18:22:07.415Z","order":3}`, string(data))
}

func TestOperations(t *testing.T) {
	assert.True(t, IsRetrySafe(OpGetAll))
	assert.True(t, IsRetrySafe(OpGetStatus))
	for _, op := range []string{OpAdd, OpToggle, OpEdit, OpDelete, OpUpdateOrder, OpClearAll, "bogus"} {
		assert.False(t, IsRetrySafe(op), op)
	}

	assert.Len(t, ServiceDesc.Methods, len(Operations))
	assert.Equal(t, "/todo.relay.v1.TaskRelay/UpdateOrder", FullMethod("UpdateOrder"))

	var cfg map[string]any
	require.NoError(t, json.Unmarshal([]byte(retryServiceConfig()), &cfg))
	assert.Contains(t, cfg, "methodConfig")
}
