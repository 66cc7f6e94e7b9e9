package grpccas

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/cidutil"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
)

// Server exposes a storage.Store over the ContentStore gRPC service.
type Server struct {
	UnimplementedContentStoreServer
	Store storage.Store
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	b := in.GetValue()
	expected := cidutil.String(b)
	h, err := s.Store.Put(ctx, b, tagsFrom(ctx))
	if err != nil {
		return nil, toStatus(err)
	}
	// Only CID-addressed backends may be served.
	if string(h) != expected {
		return nil, status.Error(codes.DataLoss, storage.ErrHandleMismatch.Error())
	}
	log.Debugf("put %s (%d bytes)", h, len(b))
	return wrapperspb.String(string(h)), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.Store == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing store")
	}
	h := in.GetValue()
	if _, err := cidutil.Parse(h); err != nil {
		return nil, status.Error(codes.InvalidArgument, storage.ErrInvalidHandle.Error())
	}
	b, err := s.Store.Get(ctx, storage.Handle(h))
	if err != nil {
		return nil, toStatus(err)
	}
	if !cidutil.Matches(h, b) {
		return nil, status.Error(codes.DataLoss, storage.ErrHandleMismatch.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func tagsFrom(ctx context.Context) storage.Tags {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}
	vals := md.Get(tagKey)
	if len(vals) == 0 {
		return nil
	}
	tags := make(storage.Tags, len(vals))
	for _, v := range vals {
		k, val, ok := strings.Cut(v, "=")
		if !ok || k == "" {
			continue
		}
		tags[k] = val
	}
	return tags
}
