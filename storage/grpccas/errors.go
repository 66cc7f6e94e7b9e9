package grpccas

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
)

// statusErrors pairs each storage sentinel with the code it travels as.
var statusErrors = []struct {
	err  error
	code codes.Code
}{
	{storage.ErrNotFound, codes.NotFound},
	{storage.ErrInvalidHandle, codes.InvalidArgument},
	{storage.ErrHandleMismatch, codes.DataLoss},
	{storage.ErrImmutable, codes.AlreadyExists},
	{storage.ErrReadOnly, codes.PermissionDenied},
	{context.DeadlineExceeded, codes.DeadlineExceeded},
	{context.Canceled, codes.Canceled},
}

// toStatus converts a store error into a gRPC status for the wire.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	for _, se := range statusErrors {
		if errors.Is(err, se.err) {
			return status.Error(se.code, err.Error())
		}
	}
	return status.Error(codes.Internal, err.Error())
}

// fromStatus converts a gRPC status back into the matching storage
// sentinel. Deadlines and cancellation keep the original status error.
func fromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, se := range statusErrors {
		if se.code == st.Code() && se.code != codes.DeadlineExceeded && se.code != codes.Canceled {
			return se.err
		}
	}
	return err
}
