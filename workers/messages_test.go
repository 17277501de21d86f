package workers

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/kerosiinikone/pixelbubble/pipeline"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestHeaderForFailure(t *testing.T) {
	h := HeaderFor(pipeline.Result{RequestID: 7, Err: pipeline.ErrUndecodable})
	if !h.Failed() || h.Reason != pipeline.ReasonUndecodable || h.RequestID != 7 {
		t.Fatalf("header = %+v", h)
	}

	msg, err := HeaderMessage(h)
	if err != nil {
		t.Fatal(err)
	}
	unpacked, err := Unpack(msg)
	if err != nil {
		t.Fatal(err)
	}
	s, ok := unpacked.(*structpb.Struct)
	if !ok {
		t.Fatalf("unpacked %T, want *structpb.Struct", unpacked)
	}
	if got := ParseHeader(s); got != h {
		t.Errorf("ParseHeader = %+v, want %+v", got, h)
	}
}

func TestUnpackDispatch(t *testing.T) {
	msg, err := BlockSizeMessage(12)
	if err != nil {
		t.Fatal(err)
	}
	unpacked, err := Unpack(msg)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := unpacked.(*wrapperspb.Int32Value); !ok || v.GetValue() != 12 {
		t.Fatalf("unpacked %#v", unpacked)
	}
}

func TestZstdCompressorRegistered(t *testing.T) {
	c := encoding.GetCompressor(Zstd)
	if c == nil {
		t.Fatal("zstd compressor not registered")
	}
	payload := bytes.Repeat([]byte{255, 0, 0, 255}, 4096)

	var buf bytes.Buffer
	w, err := c.Compress(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(payload); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() >= len(payload) {
		t.Errorf("compressed %d bytes into %d", len(payload), buf.Len())
	}

	r, err := c.Decompress(&buf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(r)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("decompressed payload differs")
	}
}
