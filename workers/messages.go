package workers

import (
	"fmt"

	"github.com/kerosiinikone/pixelbubble/pipeline"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Stream vocabulary, client -> server:
//
//	BytesValue   image chunk
//	Empty        end of image, render it
//	Int32Value   change block size
//	StringValue  change mode
//
// server -> client, once per committed result:
//
//	Struct       Header
//	BytesValue   PNG chunks (none on failure)
//	Empty        end of result

// Metadata keys carrying a stream's initial render parameters.
const (
	MetadataBlockSize = "x-pixelbubble-block-size"
	MetadataMode      = "x-pixelbubble-mode"
)

// Header describes one result.
type Header struct {
	RequestID uint64
	Width     int
	Height    int
	BlockSize int
	Mode      pipeline.Mode
	Filename  string
	// Error and Reason are set when the request failed.
	Error  string
	Reason pipeline.Reason
}

func (h Header) Failed() bool {
	return h.Error != ""
}

// HeaderFor builds the header of a pipeline result.
func HeaderFor(res pipeline.Result) Header {
	h := Header{RequestID: res.RequestID}
	if res.Err != nil {
		h.Error = res.Err.Error()
		h.Reason = res.Reason()
		return h
	}
	h.Width = res.Output.Width
	h.Height = res.Output.Height
	h.BlockSize = res.Output.BlockSize
	h.Mode = res.Output.Mode
	h.Filename = res.Output.Filename
	return h
}

func ChunkMessage(data []byte) (*anypb.Any, error) {
	return anypb.New(wrapperspb.Bytes(data))
}

func EndMessage() (*anypb.Any, error) {
	return anypb.New(&emptypb.Empty{})
}

func BlockSizeMessage(n int) (*anypb.Any, error) {
	return anypb.New(wrapperspb.Int32(int32(n)))
}

func ModeMessage(m pipeline.Mode) (*anypb.Any, error) {
	return anypb.New(wrapperspb.String(string(m)))
}

func HeaderMessage(h Header) (*anypb.Any, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"request_id": h.RequestID,
		"width":      h.Width,
		"height":     h.Height,
		"block_size": h.BlockSize,
		"mode":       string(h.Mode),
		"filename":   h.Filename,
		"error":      h.Error,
		"reason":     string(h.Reason),
	})
	if err != nil {
		return nil, fmt.Errorf("building header: %w", err)
	}
	return anypb.New(s)
}

// ParseHeader is the inverse of HeaderMessage.
func ParseHeader(s *structpb.Struct) Header {
	f := s.GetFields()
	num := func(k string) float64 { return f[k].GetNumberValue() }
	str := func(k string) string { return f[k].GetStringValue() }
	return Header{
		RequestID: uint64(num("request_id")),
		Width:     int(num("width")),
		Height:    int(num("height")),
		BlockSize: int(num("block_size")),
		Mode:      pipeline.Mode(str("mode")),
		Filename:  str("filename"),
		Error:     str("error"),
		Reason:    pipeline.Reason(str("reason")),
	}
}

// Unpack resolves the concrete message inside m.
func Unpack(m *anypb.Any) (proto.Message, error) {
	msg, err := m.UnmarshalNew()
	if err != nil {
		return nil, fmt.Errorf("unpacking %s: %w", m.GetTypeUrl(), err)
	}
	return msg, nil
}
