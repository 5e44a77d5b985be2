package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmehra2102/TodoDesk/internal/domain"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const errorDomain = "tododesk.relay"

type errorKind struct {
	err    error
	code   codes.Code
	reason string
}

// errorKinds is checked in order; the first match wins.
var errorKinds = []errorKind{
	{domain.ErrTaskNotFound, codes.NotFound, "TASK_NOT_FOUND"},
	{domain.ErrTaskExists, codes.AlreadyExists, "TASK_EXISTS"},
	{domain.ErrEmptyText, codes.InvalidArgument, "EMPTY_TEXT"},
	{domain.ErrEmptyID, codes.InvalidArgument, "EMPTY_ID"},
	{domain.ErrInvalidOrder, codes.InvalidArgument, "INVALID_ORDER"},
	{domain.ErrInitialization, codes.FailedPrecondition, "INITIALIZATION_FAILURE"},
	{domain.ErrStore, codes.Unavailable, "STORE_FAILURE"},
}

// mapDomainError converts a service failure to a status that carries the
// failure kind as an ErrorInfo reason.
func mapDomainError(err error) error {
	if err == nil {
		return nil
	}

	for _, k := range errorKinds {
		if !errors.Is(err, k.err) {
			continue
		}
		st := status.New(k.code, err.Error())
		detailed, detailErr := st.WithDetails(&errdetails.ErrorInfo{
			Reason: k.reason,
			Domain: errorDomain,
		})
		if detailErr != nil {
			return st.Err()
		}
		return detailed.Err()
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}

	return status.Error(codes.Internal, err.Error())
}

// RemoteError is a relay failure as seen by the UI. It unwraps to the
// domain sentinel named by the server, so errors.Is works across the relay.
type RemoteError struct {
	Op      string
	Code    codes.Code
	Message string
	kind    error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("relay %s: %s", e.Op, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return e.kind
}

func (e *RemoteError) GRPCStatus() *status.Status {
	return status.New(e.Code, e.Message)
}

func fromStatusError(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	remote := &RemoteError{Op: op, Code: st.Code(), Message: st.Message()}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != errorDomain {
			continue
		}
		for _, k := range errorKinds {
			if k.reason == info.GetReason() {
				remote.kind = k.err
				return remote
			}
		}
	}

	switch st.Code() {
	case codes.Canceled:
		remote.kind = context.Canceled
	case codes.DeadlineExceeded:
		remote.kind = context.DeadlineExceeded
	}
	return remote
}
