package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kerosiinikone/pixelbubble/pipeline"
	gen "github.com/kerosiinikone/pixelbubble/workers"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Result is one rendered image, or the reason it could not be rendered.
type Result struct {
	gen.Header
	PNG []byte
}

// Err turns a failed header back into an error wrapping the pipeline's sentinel.
func (r *Result) Err() error {
	if !r.Failed() {
		return nil
	}
	if sentinel := sentinelFor(r.Reason); sentinel != nil {
		return fmt.Errorf("request %d: %w (%s)", r.RequestID, sentinel, r.Error)
	}
	return fmt.Errorf("request %d: %s", r.RequestID, r.Error)
}

func sentinelFor(reason pipeline.Reason) error {
	switch reason {
	case pipeline.ReasonNoFileSelected:
		return pipeline.ErrNoFileSelected
	case pipeline.ReasonUndecodable:
		return pipeline.ErrUndecodable
	case pipeline.ReasonSurfaceUnavailable:
		return pipeline.ErrSurfaceUnavailable
	case pipeline.ReasonNoImage:
		return pipeline.ErrNoImage
	}
	return nil
}

// Stream is one session with the service. Send calls must not run
// concurrently with each other; Recv may run alongside them.
type Stream struct {
	stream    gen.ImageService_TransferImageBytesClient
	chunkSize int
}

// Upload sends r in chunks followed by the end-of-image marker.
func (s *Stream) Upload(ctx context.Context, r io.Reader) error {
	var (
		chunks = make(chan gen.ImageChunk)
		errc   = make(chan error, 1)
	)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		errc <- gen.PipeResult(ctx, r, s.chunkSize, chunks)
	}()

	for {
		select {
		case chunk := <-chunks:
			if chunk.Completed {
				end, err := gen.EndMessage()
				if err != nil {
					return err
				}
				return s.stream.Send(end)
			}
			msg, err := gen.ChunkMessage(chunk.Data)
			if err != nil {
				return err
			}
			if err := s.stream.Send(msg); err != nil {
				return fmt.Errorf("sending chunk: %w", err)
			}
		case err := <-errc:
			if err != nil {
				return err
			}
		}
	}
}

// SetBlockSize asks for the current image again at block size n.
func (s *Stream) SetBlockSize(n int) error {
	msg, err := gen.BlockSizeMessage(n)
	if err != nil {
		return err
	}
	return s.stream.Send(msg)
}

// SetMode asks for the current image again in mode m.
func (s *Stream) SetMode(m pipeline.Mode) error {
	msg, err := gen.ModeMessage(m)
	if err != nil {
		return err
	}
	return s.stream.Send(msg)
}

// Recv waits for the next result. Failed requests come back as a Result whose
// Err is set; the returned error is reserved for transport problems.
func (s *Stream) Recv() (*Result, error) {
	var (
		res     *Result
		payload bytes.Buffer
	)
	for {
		msg, err := s.stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) && res != nil {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		m, err := gen.Unpack(msg)
		if err != nil {
			return nil, err
		}

		switch v := m.(type) {
		case *structpb.Struct:
			res = &Result{Header: gen.ParseHeader(v)}
		case *wrapperspb.BytesValue:
			if res == nil {
				return nil, errors.New("image data before result header")
			}
			payload.Write(v.GetValue())
		case *emptypb.Empty:
			if res == nil {
				return nil, errors.New("end of result before header")
			}
			res.PNG = payload.Bytes()
			return res, nil
		default:
			return nil, fmt.Errorf("unexpected message %s", msg.GetTypeUrl())
		}
	}
}

// Close tells the service no more requests follow.
func (s *Stream) Close() error {
	return s.stream.CloseSend()
}
