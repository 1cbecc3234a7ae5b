package routegrpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/neovate-digital/namesys/record"
	"github.com/neovate-digital/namesys/routing"
)

// Server exposes a routing.Backend over the Routing gRPC service.
type Server struct {
	UnimplementedRoutingServer
	Backend routing.Backend
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	if s == nil || s.Backend == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing backend")
	}
	raw := in.GetValue()
	// Derive the routing key from the record itself; a record that does not
	// decode or carries an unusable key never reaches the backend.
	rec, err := record.Decode(raw)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	owner, err := rec.Owner()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := s.Backend.Put(ctx, owner.RoutingKey(), raw); err != nil {
		return nil, mapErr(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Backend == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing backend")
	}
	raw, err := s.Backend.Get(ctx, in.GetValue())
	if err != nil {
		return nil, mapErr(err)
	}
	return wrapperspb.Bytes(raw), nil
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case routing.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case routing.IsRejected(err):
		return status.Error(codes.FailedPrecondition, err.Error())
	case routing.IsUnavailable(err):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
