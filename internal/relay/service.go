package relay

import (
	"context"
	"encoding/json"

	"github.com/dmehra2102/TodoDesk/internal/domain"
	"google.golang.org/grpc"
)

const ServiceName = "todo.relay.v1.TaskRelay"

// Operation names of the UI contract.
const (
	OpGetAll      = "getAll"
	OpAdd         = "add"
	OpToggle      = "toggle"
	OpEdit        = "edit"
	OpDelete      = "delete"
	OpUpdateOrder = "updateOrder"
	OpClearAll    = "clearAll"
	OpGetStatus   = "getStatus"
)

type Operation struct {
	Name   string
	Method string
	// RetrySafe marks pure reads.
	RetrySafe bool
}

var Operations = []Operation{
	{Name: OpGetAll, Method: "GetAll", RetrySafe: true},
	{Name: OpAdd, Method: "Add"},
	{Name: OpToggle, Method: "Toggle"},
	{Name: OpEdit, Method: "Edit"},
	{Name: OpDelete, Method: "Delete"},
	{Name: OpUpdateOrder, Method: "UpdateOrder"},
	{Name: OpClearAll, Method: "ClearAll"},
	{Name: OpGetStatus, Method: "GetStatus", RetrySafe: true},
}

// FullMethod returns the gRPC path of a relay method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func IsRetrySafe(op string) bool {
	for _, o := range Operations {
		if o.Name == op {
			return o.RetrySafe
		}
	}
	return false
}

// Backend is the set of operations the relay forwards. The persistence
// service implements it on the host side and Client on the UI side.
type Backend interface {
	GetAll(ctx context.Context) ([]domain.Task, error)
	Add(ctx context.Context, task domain.Task) (domain.Task, error)
	Toggle(ctx context.Context, id string, completed bool) error
	Edit(ctx context.Context, id, text string) error
	Delete(ctx context.Context, id string) error
	UpdateOrder(ctx context.Context, entries []domain.OrderEntry) (int64, error)
	ClearAll(ctx context.Context) error
	GetStatus(ctx context.Context) (domain.StoreStatus, error)
}

// RelayServer is the server API of the TaskRelay service.
type RelayServer interface {
	GetAll(context.Context, *Empty) (*GetAllResponse, error)
	Add(context.Context, *AddRequest) (*AddResponse, error)
	Toggle(context.Context, *ToggleRequest) (*Empty, error)
	Edit(context.Context, *EditRequest) (*Empty, error)
	Delete(context.Context, *DeleteRequest) (*Empty, error)
	UpdateOrder(context.Context, *UpdateOrderRequest) (*UpdateOrderResponse, error)
	ClearAll(context.Context, *Empty) (*Empty, error)
	GetStatus(context.Context, *Empty) (*StatusMessage, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RelayServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetAll", Handler: unaryHandler("GetAll", RelayServer.GetAll)},
		{MethodName: "Add", Handler: unaryHandler("Add", RelayServer.Add)},
		{MethodName: "Toggle", Handler: unaryHandler("Toggle", RelayServer.Toggle)},
		{MethodName: "Edit", Handler: unaryHandler("Edit", RelayServer.Edit)},
		{MethodName: "Delete", Handler: unaryHandler("Delete", RelayServer.Delete)},
		{MethodName: "UpdateOrder", Handler: unaryHandler("UpdateOrder", RelayServer.UpdateOrder)},
		{MethodName: "ClearAll", Handler: unaryHandler("ClearAll", RelayServer.ClearAll)},
		{MethodName: "GetStatus", Handler: unaryHandler("GetStatus", RelayServer.GetStatus)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "relay/service.go",
}

func RegisterRelayServer(s grpc.ServiceRegistrar, srv RelayServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unaryHandler[Req, Resp any](method string, call func(RelayServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RelayServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RelayServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// retryServiceConfig retries only the pure reads, and only while the
// host is unreachable.
func retryServiceConfig() string {
	type name struct {
		Service string `json:"service"`
		Method  string `json:"method"`
	}
	type retryPolicy struct {
		MaxAttempts          int      `json:"maxAttempts"`
		InitialBackoff       string   `json:"initialBackoff"`
		MaxBackoff           string   `json:"maxBackoff"`
		BackoffMultiplier    float64  `json:"backoffMultiplier"`
		RetryableStatusCodes []string `json:"retryableStatusCodes"`
	}
	type methodConfig struct {
		Name        []name      `json:"name"`
		RetryPolicy retryPolicy `json:"retryPolicy"`
	}

	var names []name
	for _, op := range Operations {
		if op.RetrySafe {
			names = append(names, name{Service: ServiceName, Method: op.Method})
		}
	}

	cfg := map[string][]methodConfig{
		"methodConfig": {{
			Name: names,
			RetryPolicy: retryPolicy{
				MaxAttempts:          3,
				InitialBackoff:       "0.1s",
				MaxBackoff:           "1s",
				BackoffMultiplier:    2,
				RetryableStatusCodes: []string{"UNAVAILABLE"},
			},
		}},
	}

	data, _ := json.Marshal(cfg)
	return string(data)
}
