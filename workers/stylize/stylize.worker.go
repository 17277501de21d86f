package stylize

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/kerosiinikone/pixelbubble/pipeline"
	u "github.com/kerosiinikone/pixelbubble/workers"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// MaxUploadBytes bounds one buffered upload.
const MaxUploadBytes = 64 << 20

// worker drives one stream: it buffers incoming chunks, runs each request on
// its own goroutine against the stream's session, and funnels the results
// that were committed through a single sender.
type worker struct {
	srv       u.ImageService_TransferImageBytesServer
	session   *pipeline.Session
	chunkSize int
	logger    *log.Logger

	outch chan pipeline.Result
	jobs  sync.WaitGroup
}

func newWorker(srv u.ImageService_TransferImageBytesServer, session *pipeline.Session, chunkSize int, logger *log.Logger) *worker {
	return &worker{
		srv:       srv,
		session:   session,
		chunkSize: chunkSize,
		logger:    logger,
		outch:     make(chan pipeline.Result),
	}
}

func (w *worker) run() error {
	sendErr := make(chan error, 1)
	go func() {
		sendErr <- w.sendResults()
	}()

	recvErr := w.receive()

	// Let in-flight requests finish before closing the stream.
	w.jobs.Wait()
	close(w.outch)

	if err := <-sendErr; err != nil {
		return err
	}
	return recvErr
}

// receive reads the client's messages until it closes its side.
func (w *worker) receive() error {
	var (
		ctx       = w.srv.Context()
		imgBuffer = new(bytes.Buffer)
	)

	for {
		msg, err := w.srv.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		m, err := u.Unpack(msg)
		if err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}

		switch v := m.(type) {
		case *wrapperspb.BytesValue:
			if imgBuffer.Len()+len(v.GetValue()) > MaxUploadBytes {
				return status.Errorf(codes.ResourceExhausted, "upload exceeds %d bytes", MaxUploadBytes)
			}
			imgBuffer.Write(v.GetValue())
		case *emptypb.Empty:
			data := bytes.Clone(imgBuffer.Bytes())
			imgBuffer.Reset()
			w.submit("upload", func() pipeline.Result {
				return w.session.Upload(ctx, bytes.NewReader(data))
			})
		case *wrapperspb.Int32Value:
			n := int(v.GetValue())
			w.submit("block size", func() pipeline.Result {
				return w.session.SetBlockSize(ctx, n)
			})
		case *wrapperspb.StringValue:
			mode, err := pipeline.ParseMode(v.GetValue())
			w.submit("mode", func() pipeline.Result {
				if err != nil {
					return pipeline.Result{Err: err}
				}
				return w.session.SetMode(ctx, mode)
			})
		default:
			return status.Errorf(codes.InvalidArgument, "unexpected message %s", msg.GetTypeUrl())
		}
	}
}

// submit runs job concurrently. Results that carry nothing for the client
// are dropped here: superseded runs, changes the pending upload will render,
// and empty uploads.
func (w *worker) submit(kind string, job func() pipeline.Result) {
	w.jobs.Add(1)
	go func() {
		defer w.jobs.Done()

		start := time.Now()
		res := job()
		if silent(res.Err) {
			return
		}
		if res.Err != nil {
			w.logger.Printf("%s request %d failed: %v", kind, res.RequestID, res.Err)
		} else {
			w.logger.Printf("%s request %d rendered %dx%d in %s",
				kind, res.RequestID, res.Output.Width, res.Output.Height, time.Since(start).Round(time.Millisecond))
		}
		w.outch <- res
	}()
}

func silent(err error) bool {
	return errors.Is(err, pipeline.ErrStale) ||
		errors.Is(err, pipeline.ErrDeferred) ||
		errors.Is(err, pipeline.ErrNoFileSelected)
}

// sendResults is the only goroutine calling srv.Send. After a send error it
// keeps draining so no job blocks.
func (w *worker) sendResults() error {
	var failed error
	for res := range w.outch {
		if failed != nil {
			continue
		}
		failed = w.sendResult(res)
	}
	return failed
}

func (w *worker) sendResult(res pipeline.Result) error {
	hdr, err := u.HeaderMessage(u.HeaderFor(res))
	if err != nil {
		return err
	}
	if err := w.srv.Send(hdr); err != nil {
		return err
	}

	if res.Err == nil {
		if err := w.sendImage(res.Output.PNG); err != nil {
			return err
		}
	}

	end, err := u.EndMessage()
	if err != nil {
		return err
	}
	return w.srv.Send(end)
}

func (w *worker) sendImage(png []byte) error {
	ctx, cancel := context.WithCancel(w.srv.Context())
	defer cancel()

	var (
		chunks = make(chan u.ImageChunk)
		errc   = make(chan error, 1)
	)
	go func() {
		errc <- u.PipeResult(ctx, bytes.NewReader(png), w.chunkSize, chunks)
	}()

	for {
		select {
		case chunk := <-chunks:
			if chunk.Completed {
				return nil
			}
			msg, err := u.ChunkMessage(chunk.Data)
			if err != nil {
				return err
			}
			if err := w.srv.Send(msg); err != nil {
				return err
			}
		case err := <-errc:
			if err != nil {
				return err
			}
		}
	}
}
