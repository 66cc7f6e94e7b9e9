package evidence_test

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/anchor"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/cidutil"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/evidence"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/fingerprint"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/proposal"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage/localfs"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/verify"
)

func entry(t *testing.T, txByte byte, c *proposal.Content) evidence.Entry {
	t.Helper()
	payload, err := c.Pretty()
	if err != nil {
		t.Fatal(err)
	}
	fp, err := fingerprint.Of(c)
	if err != nil {
		t.Fatal(err)
	}
	h := storage.Handle(cidutil.String(payload))
	return evidence.Entry{
		TxID:  ledger.TxID{txByte},
		Label: anchor.DefaultLabel,
		Record: anchor.Record{
			Fingerprint:   fp,
			StorageHandle: h,
			StorageURL:    "https://ipfs.io/ipfs/" + string(h),
			StorageKind:   "ipfs",
			CreatedAt:     1700000000,
			RecordType:    anchor.RecordType,
		},
		Payload: payload,
	}
}

func entries(t *testing.T) []evidence.Entry {
	a := entry(t, 1, proposal.Example(time.Unix(1700000000, 0)))
	b := entry(t, 2, proposal.Example(time.Unix(1700000000, 0)).With("title", "Second"))
	return []evidence.Entry{a, b}
}

func TestExport_IsDeterministic(t *testing.T) {
	es := entries(t)
	var outA, outB bytes.Buffer
	if err := evidence.Export(&outA, []evidence.Entry{es[1], es[0]}); err != nil {
		t.Fatal(err)
	}
	if err := evidence.Export(&outB, []evidence.Entry{es[0], es[1], es[0]}); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(outA.Bytes(), outB.Bytes()) {
		t.Fatalf("expected deterministic bundle bytes")
	}
}

func TestReadAndCheck_RoundTrip(t *testing.T) {
	es := entries(t)
	var buf bytes.Buffer
	if err := evidence.Export(&buf, es); err != nil {
		t.Fatal(err)
	}
	got, err := evidence.Read(bytes.NewReader(buf.Bytes()), evidence.ReadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(es) {
		t.Fatalf("got %d entries", len(got))
	}
	for i := range got {
		if got[i].TxID != es[i].TxID || got[i].Record != es[i].Record || !bytes.Equal(got[i].Payload, es[i].Payload) {
			t.Fatalf("entry %d = %+v", i, got[i])
		}
		res := evidence.Check(got[i])
		if !res.Match || res.State != verify.StateMatch {
			t.Fatalf("entry %d: %+v", i, res)
		}
	}
}

func TestCheck_Mismatches(t *testing.T) {
	t.Run("different content", func(t *testing.T) {
		e := entry(t, 1, proposal.Example(time.Unix(1700000000, 0)))
		e.Payload = []byte(`{"title":"x","description":"y","proposer":"z"}`)
		if res := evidence.Check(e); res.Match {
			t.Fatalf("tampered payload matched")
		}
	})
	t.Run("same fingerprint, other bytes", func(t *testing.T) {
		c := proposal.Example(time.Unix(1700000000, 0))
		e := entry(t, 1, c)
		compact, err := c.MarshalJSON()
		if err != nil {
			t.Fatal(err)
		}
		e.Payload = compact
		res := evidence.Check(e)
		if res.Match || res.ComputedFingerprint != e.Record.Fingerprint {
			t.Fatalf("result = %+v", res)
		}
	})
}

func TestImport_IntoLocalStore(t *testing.T) {
	es := entries(t)
	var buf bytes.Buffer
	if err := evidence.Export(&buf, es); err != nil {
		t.Fatal(err)
	}
	dst, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := evidence.Import(ctx, bytes.NewReader(buf.Bytes()), dst); err != nil {
		t.Fatal(err)
	}
	for _, e := range es {
		got, err := dst.Get(ctx, e.Record.StorageHandle)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got, e.Payload) {
			t.Fatalf("payload mismatch for %s", e.Record.StorageHandle)
		}
	}
}

func TestRead_Rejects(t *testing.T) {
	t.Run("unknown entry", func(t *testing.T) {
		b := makeTar(t, "blocks/x", []byte("x"))
		if _, err := evidence.Read(bytes.NewReader(b), evidence.ReadOptions{}); err == nil {
			t.Fatalf("expected error")
		}
		if _, err := evidence.Read(bytes.NewReader(b), evidence.ReadOptions{IgnoreUnknown: true}); !errors.Is(err, evidence.ErrNoIndex) {
			t.Fatalf("expected ErrNoIndex, got %v", err)
		}
	})
	t.Run("path traversal", func(t *testing.T) {
		b := makeTar(t, "../index.json", []byte("{}"))
		if _, err := evidence.Read(bytes.NewReader(b), evidence.ReadOptions{IgnoreUnknown: true}); err == nil {
			t.Fatalf("expected error")
		}
	})
	t.Run("missing content", func(t *testing.T) {
		b := makeTar(t, "index.json", []byte(`{"version":1,"anchors":[{"transaction_id":"`+
			ledger.TxID{1}.String()+`","metadata_label":1337,"record":{"fingerprint":"f","storage_handle":"h","created_at":0,"record_type":""},"content":"content/h","size":1}]}`))
		if _, err := evidence.Read(bytes.NewReader(b), evidence.ReadOptions{}); !errors.Is(err, evidence.ErrMissingContent) {
			t.Fatalf("expected ErrMissingContent, got %v", err)
		}
	})
}

func TestExport_RejectsUnsafeHandles(t *testing.T) {
	e := entry(t, 1, proposal.Example(time.Unix(1700000000, 0)))
	e.Record.StorageHandle = "../../etc/passwd"
	if err := evidence.Export(&bytes.Buffer{}, []evidence.Entry{e}); !errors.Is(err, evidence.ErrUnsafeHandle) {
		t.Fatalf("expected ErrUnsafeHandle, got %v", err)
	}
}

func makeTar(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	h := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  time.Unix(0, 0).UTC(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(h); err != nil {
		t.Fatal(err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatal(err)
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestExportCompressed_ReadsBack(t *testing.T) {
	es := entries(t)
	var plain, packed bytes.Buffer
	if err := evidence.Export(&plain, es); err != nil {
		t.Fatal(err)
	}
	if err := evidence.ExportCompressed(&packed, es); err != nil {
		t.Fatal(err)
	}
	if packed.Len() >= plain.Len() {
		t.Fatalf("compressed bundle is %d bytes, plain %d", packed.Len(), plain.Len())
	}
	if !bytes.HasPrefix(packed.Bytes(), []byte{0x28, 0xb5, 0x2f, 0xfd}) {
		t.Fatalf("compressed bundle does not start with a zstd frame")
	}

	got, err := evidence.Read(bytes.NewReader(packed.Bytes()), evidence.ReadOptions{})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != len(es) {
		t.Fatalf("got %d entries want %d", len(got), len(es))
	}
	for _, e := range got {
		if res := evidence.Check(e); !res.Match {
			t.Fatalf("%s: %s", e.TxID, res.Reason)
		}
	}

	if _, err := evidence.Read(bytes.NewReader([]byte{0x28, 0xb5, 0x2f, 0xfd, 0x00}), evidence.ReadOptions{}); err == nil {
		t.Fatalf("expected error for a truncated zstd frame")
	}
}
