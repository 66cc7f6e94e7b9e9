package grpccas

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        Kind,
		Description: "gRPC content-store client (talks to anchor-casd)",
		Usage:       registry.UsageCLI,
		Keys: []registry.Key{
			{Name: "grpc-target", Help: "host:port of the store daemon", Required: true},
			{Name: "grpc-dial-timeout", Help: "dial timeout (default 5s)"},
			{Name: "grpc-timeout", Help: "per-RPC timeout (default none)"},
			{Name: "grpc-max-msg-bytes", Help: "max message size in bytes; 0 uses grpc defaults"},
		},
		Open: func(cfg map[string]string) (storage.Store, func() error, error) {
			target := strings.TrimSpace(cfg["grpc-target"])
			dialTimeout, err := durationOr(cfg["grpc-dial-timeout"], 5*time.Second)
			if err != nil {
				return nil, nil, err
			}
			timeout, err := durationOr(cfg["grpc-timeout"], 0)
			if err != nil {
				return nil, nil, err
			}
			maxMsg := 0
			if v := cfg["grpc-max-msg-bytes"]; v != "" {
				if maxMsg, err = strconv.Atoi(v); err != nil {
					return nil, nil, fmt.Errorf("grpccas: grpc-max-msg-bytes: %w", err)
				}
			}
			client, err := Dial(target, DialOptions{Timeout: dialTimeout, MaxMsgBytes: maxMsg})
			if err != nil {
				return nil, nil, err
			}
			client.Timeout = timeout
			return client, client.Close, nil
		},
	})
}

func durationOr(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("grpccas: %w", err)
	}
	return d, nil
}
