package grpccas

import (
	"context"
	"fmt"
	"sort"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/cidutil"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
)

// Kind is recorded on chain for payloads written through this client.
const Kind = "grpc"

// tagKey is the request metadata key carrying store tags. The -bin suffix
// makes grpc base64 the values, so non-ASCII titles survive.
const tagKey = "anchor-tag-bin"

// Client implements storage.Store over a ContentStore gRPC service.
type Client struct {
	cc     *grpc.ClientConn
	client ContentStoreClient
	target string

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

var _ storage.Store = (*Client)(nil)

type DialOptions struct {
	// Timeout applies to the initial dial when non-zero.
	Timeout time.Duration

	// MaxMsgBytes sets both send/recv max sizes when non-zero.
	MaxMsgBytes int
}

func Dial(target string, opts DialOptions) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if opts.MaxMsgBytes > 0 {
		dialOpts = append(dialOpts,
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(opts.MaxMsgBytes),
				grpc.MaxCallSendMsgSize(opts.MaxMsgBytes),
			),
		)
	}

	ctx := context.Background()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cc, err := grpc.DialContext(ctx, target, dialOpts...)
	if err != nil {
		return nil, err
	}
	return NewClient(cc, target), nil
}

// NewClient wraps an existing connection.
func NewClient(cc *grpc.ClientConn, target string) *Client {
	return &Client{cc: cc, client: NewContentStoreClient(cc), target: target}
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

func (c *Client) Kind() string { return Kind }

func (c *Client) URL(h storage.Handle) string {
	return fmt.Sprintf("grpc://%s/%s", c.target, h)
}

func (c *Client) Put(ctx context.Context, data []byte, tags storage.Tags) (storage.Handle, error) {
	expected := cidutil.String(data)
	if expected == "" {
		return "", storage.ErrInvalidHandle
	}

	ctx, cancel := c.ctx(ctx)
	defer cancel()
	if len(tags) > 0 {
		ctx = metadata.AppendToOutgoingContext(ctx, encodeTags(tags)...)
	}

	reply, err := c.client.Put(ctx, wrapperspb.Bytes(data))
	if err != nil {
		return "", fromStatus(err)
	}
	if _, err := cidutil.Parse(reply.GetValue()); err != nil {
		return "", storage.ErrInvalidHandle
	}
	if reply.GetValue() != expected {
		return "", storage.ErrHandleMismatch
	}
	return storage.Handle(expected), nil
}

func (c *Client) Get(ctx context.Context, h storage.Handle) ([]byte, error) {
	if _, err := cidutil.Parse(string(h)); err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidHandle, err)
	}
	ctx, cancel := c.ctx(ctx)
	defer cancel()

	reply, err := c.client.Get(ctx, wrapperspb.String(string(h)))
	if err != nil {
		return nil, fromStatus(err)
	}
	b := reply.GetValue()
	if !cidutil.Matches(string(h), b) {
		return nil, storage.ErrHandleMismatch
	}
	return b, nil
}

func (c *Client) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, c.Timeout)
}

func encodeTags(tags storage.Tags) []string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, tagKey, k+"="+tags[k])
	}
	return kv
}
