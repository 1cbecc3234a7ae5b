package routegrpc

import (
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/neovate-digital/namesys/routing"
)

func mapRPC(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	switch st.Code() {
	case codes.NotFound:
		return routing.ErrNotFound
	case codes.FailedPrecondition, codes.InvalidArgument:
		// Server uses FailedPrecondition for refused records and
		// InvalidArgument for records that never reached the backend.
		return routing.ErrRejected
	case codes.Unavailable:
		return routing.ErrUnavailable
	default:
		// Best-effort: if the server sent a known routing error message, preserve it.
		switch st.Message() {
		case routing.ErrNotFound.Error():
			return routing.ErrNotFound
		case routing.ErrRejected.Error():
			return routing.ErrRejected
		case routing.ErrUnavailable.Error():
			return routing.ErrUnavailable
		default:
			return err
		}
	}
}
