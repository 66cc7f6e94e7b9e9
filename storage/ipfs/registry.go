package ipfs

import (
	"strconv"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        Kind,
		Description: "IPFS via the local Kubo CLI, with HTTP gateway reads",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		Keys: []registry.Key{
			{Name: "ipfs-bin", Help: "path to the ipfs binary"},
			{Name: "ipfs-path", Help: "IPFS_PATH for the CLI"},
			{Name: "pin", Help: "pin stored blocks (true|false)"},
			{Name: "gateway", Help: "HTTP gateway base URL for reads and links"},
			{Name: "gateway-only", Help: "read-only mode without the CLI (true|false)"},
		},
		Open: func(cfg map[string]string) (storage.Store, func() error, error) {
			pin, err := parseBool(cfg["pin"])
			if err != nil {
				return nil, nil, err
			}
			gatewayOnly, err := parseBool(cfg["gateway-only"])
			if err != nil {
				return nil, nil, err
			}
			return New(Options{
				Bin:         cfg["ipfs-bin"],
				Path:        cfg["ipfs-path"],
				Pin:         pin,
				Gateway:     cfg["gateway"],
				GatewayOnly: gatewayOnly,
			}), nil, nil
		},
	})
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
