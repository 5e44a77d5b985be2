package relay

import (
	"context"
	"fmt"

	"github.com/dmehra2102/TodoDesk/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client calls the relay from the UI process. Failures are returned as
// *RemoteError values that unwrap to the domain error kind.
type Client struct {
	conn *grpc.ClientConn
}

type clientOptions struct {
	token       string
	dialOptions []grpc.DialOption
}

type ClientOption func(*clientOptions)

// WithToken attaches a bearer token to every call.
func WithToken(token string) ClientOption {
	return func(o *clientOptions) {
		o.token = token
	}
}

func WithDialOptions(opts ...grpc.DialOption) ClientOption {
	return func(o *clientOptions) {
		o.dialOptions = append(o.dialOptions, opts...)
	}
}

// Dial creates a client for addr, either host:port or unix:///path.
// The connection is established lazily on the first call.
func Dial(addr string, opts ...ClientOption) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
		grpc.WithDefaultServiceConfig(retryServiceConfig()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}
	if o.token != "" {
		dialOpts = append(dialOpts, grpc.WithPerRPCCredentials(bearerToken(o.token)))
	}
	dialOpts = append(dialOpts, o.dialOptions...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create relay client: %w", err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, op, method string, req, resp any) error {
	if err := c.conn.Invoke(ctx, FullMethod(method), req, resp); err != nil {
		return fromStatusError(op, err)
	}
	return nil
}

func (c *Client) GetAll(ctx context.Context) ([]domain.Task, error) {
	resp := &GetAllResponse{}
	if err := c.invoke(ctx, OpGetAll, "GetAll", &Empty{}, resp); err != nil {
		return nil, err
	}
	return fromTaskMessages(resp.Tasks), nil
}

func (c *Client) Add(ctx context.Context, task domain.Task) (domain.Task, error) {
	req := &AddRequest{Task: NewTaskMessage{
		ID:        task.ID,
		Text:      task.Text,
		Completed: task.Completed,
		CreatedAt: task.CreatedAt,
	}}
	resp := &AddResponse{}
	if err := c.invoke(ctx, OpAdd, "Add", req, resp); err != nil {
		return domain.Task{}, err
	}
	task.Order = resp.Order
	return task, nil
}

func (c *Client) Toggle(ctx context.Context, id string, completed bool) error {
	return c.invoke(ctx, OpToggle, "Toggle", &ToggleRequest{ID: id, Completed: completed}, &Empty{})
}

func (c *Client) Edit(ctx context.Context, id, text string) error {
	return c.invoke(ctx, OpEdit, "Edit", &EditRequest{ID: id, Text: text}, &Empty{})
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.invoke(ctx, OpDelete, "Delete", &DeleteRequest{ID: id}, &Empty{})
}

func (c *Client) UpdateOrder(ctx context.Context, entries []domain.OrderEntry) (int64, error) {
	resp := &UpdateOrderResponse{}
	req := &UpdateOrderRequest{TodosOrder: toOrderMessages(entries)}
	if err := c.invoke(ctx, OpUpdateOrder, "UpdateOrder", req, resp); err != nil {
		return 0, err
	}
	return resp.Changes, nil
}

func (c *Client) ClearAll(ctx context.Context) error {
	return c.invoke(ctx, OpClearAll, "ClearAll", &Empty{}, &Empty{})
}

func (c *Client) GetStatus(ctx context.Context) (domain.StoreStatus, error) {
	resp := &StatusMessage{}
	if err := c.invoke(ctx, OpGetStatus, "GetStatus", &Empty{}, resp); err != nil {
		return domain.StoreStatus{}, err
	}
	return fromStatusMessage(resp), nil
}

// bearerToken implements credentials.PerRPCCredentials. The relay listens
// on loopback or a unix socket, so transport security is not required.
type bearerToken string

func (t bearerToken) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + string(t)}, nil
}

func (t bearerToken) RequireTransportSecurity() bool {
	return false
}

var _ Backend = (*Client)(nil)
