package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/decred/slog"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/grpccas"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/ipfs"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/registry"

	_ "github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/localfs"
)

var log = slog.Disabled

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil))
}

// run serves until ctx is done. ready, when not nil, receives the bound
// address once the listener is up.
func run(ctx context.Context, args []string, out io.Writer, errOut io.Writer, ready chan<- net.Addr) int {
	fs := pflag.NewFlagSet("anchor-casd", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	listen := fs.String("listen", "127.0.0.1:7777", "listen address")
	backend := fs.String("backend", "localfs", "content-store backend name")
	backendCfg := fs.StringToString("backend-config", nil, "backend settings as key=value (repeatable)")
	listBackends := fs.Bool("list-backends", false, "list supported backends and exit")
	logLevel := fs.String("log-level", "info", "trace|debug|info|warn|error|critical|off")
	maxMsg := fs.Int("max-msg-bytes", 0, "max gRPC message size in bytes; 0 uses grpc defaults")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if *listBackends {
		for _, b := range registry.List(registry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(out, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}
	level, ok := slog.LevelFromString(*logLevel)
	if !ok {
		fmt.Fprintf(errOut, "invalid --log-level %q\n", *logLevel)
		return 2
	}
	logs := slog.NewBackend(errOut)
	for tag, use := range map[string]func(slog.Logger){
		"CASD": func(l slog.Logger) { log = l },
		"GRPC": grpccas.UseLogger,
		"STOR": storage.UseLogger,
		"IPFS": ipfs.UseLogger,
	} {
		l := logs.Logger(tag)
		l.SetLevel(level)
		use(l)
	}

	store, closeFn, err := registry.Open(*backend, registry.UsageDaemon, *backendCfg)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer lis.Close()

	var opts []grpc.ServerOption
	if *maxMsg > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(*maxMsg), grpc.MaxSendMsgSize(*maxMsg))
	}
	s := grpc.NewServer(opts...)
	grpccas.RegisterContentStoreServer(s, &grpccas.Server{Store: store})

	log.Infof("anchor-casd listening on %s (backend=%s)", lis.Addr(), *backend)
	if ready != nil {
		ready <- lis.Addr()
	}

	errc := make(chan error, 1)
	go func() { errc <- s.Serve(lis) }()
	select {
	case <-ctx.Done():
		log.Infof("Shutting down")
		s.GracefulStop()
		<-errc
		return 0
	case err := <-errc:
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		return 0
	}
}
