package main

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/cidutil"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/grpccas"
)

func TestRun_ListBackends(t *testing.T) {
	var out, errOut bytes.Buffer
	if code := run(context.Background(), []string{"--list-backends"}, &out, &errOut, nil); code != 0 {
		t.Fatalf("exit %d: %s", code, errOut.String())
	}
	if !strings.Contains(out.String(), "localfs\t") {
		t.Fatalf("localfs not listed:\n%s", out.String())
	}
	// The gRPC client backend cannot be served by the daemon itself.
	if strings.Contains(out.String(), "grpc\t") {
		t.Fatalf("grpc listed as a daemon backend:\n%s", out.String())
	}
}

func TestRun_BadFlags(t *testing.T) {
	tests := [][]string{
		{"--bogus"},
		{"--log-level", "loud"},
		{"--backend", "nope"},
		{"--backend", "localfs"},
	}
	for _, args := range tests {
		var out, errOut bytes.Buffer
		if code := run(context.Background(), args, &out, &errOut, nil); code != 2 {
			t.Fatalf("%v: exit %d want 2", args, code)
		}
	}
}

func TestRun_ServesLocalStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan net.Addr, 1)
	done := make(chan int, 1)
	var out, errOut bytes.Buffer
	go func() {
		done <- run(ctx, []string{
			"--listen", "127.0.0.1:0",
			"--backend", "localfs",
			"--backend-config", "localfs-dir=" + t.TempDir(),
			"--log-level", "off",
		}, &out, &errOut, ready)
	}()

	var addr net.Addr
	select {
	case addr = <-ready:
	case code := <-done:
		t.Fatalf("daemon exited early with %d: %s", code, errOut.String())
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not start")
	}

	client, err := grpccas.Dial(addr.String(), grpccas.DialOptions{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	data := []byte(`{"title":"T"}`)
	h, err := client.Put(ctx, data, nil)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if string(h) != cidutil.String(data) {
		t.Fatalf("handle = %s want %s", h, cidutil.String(data))
	}
	got, err := client.Get(ctx, h)
	if err != nil || !bytes.Equal(got, data) {
		t.Fatalf("Get = %q, %v", got, err)
	}

	cancel()
	select {
	case code := <-done:
		if code != 0 {
			t.Fatalf("exit %d: %s", code, errOut.String())
		}
	case <-time.After(10 * time.Second):
		t.Fatal("daemon did not stop")
	}
}
