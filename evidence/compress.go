package evidence

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// maxDecompressed bounds the TAR stream inflated from a compressed bundle.
const maxDecompressed = 256 << 20

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// zstd.Encoder and zstd.Decoder are safe for concurrent use through
// EncodeAll and DecodeAll.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
	)
	if err != nil {
		panic("evidence: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecompressed))
	if err != nil {
		panic("evidence: zstd decoder initialization failed: " + err.Error())
	}
}

// ExportCompressed writes the bundle Export would produce as a single zstd
// frame. Read accepts both forms.
func ExportCompressed(w io.Writer, entries []Entry) error {
	var buf bytes.Buffer
	if err := Export(&buf, entries); err != nil {
		return err
	}
	_, err := w.Write(zstdEncoder.EncodeAll(buf.Bytes(), nil))
	return err
}

// decompress returns r unchanged unless it starts with a zstd frame.
func decompress(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil || !bytes.Equal(head, zstdMagic) {
		// Short or plain input is left for the TAR reader to judge.
		return br, nil
	}
	compressed, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("evidence: %w", err)
	}
	plain, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("evidence: zstd: %w", err)
	}
	return bytes.NewReader(plain), nil
}
