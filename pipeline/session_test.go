package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"io"
	"log"
	"runtime"
	"testing"
)

func newTestSession() *Session {
	return NewSession(DecodeOptions{}, DefaultParameters(), log.New(io.Discard, "", 0))
}

func TestSessionUploadCommits(t *testing.T) {
	s := newTestSession()
	src := encodePNG(t, solidImage(50, 40, color.NRGBA{255, 0, 0, 255}))

	res := s.Upload(context.Background(), bytes.NewReader(src))
	if res.Err != nil {
		t.Fatalf("Upload: %v", res.Err)
	}
	st := s.State()
	if st.RequestID != res.RequestID || st.Processing || st.Output != res.Output || st.Source == nil {
		t.Fatalf("state not committed: %+v", st)
	}
	select {
	case got := <-s.Updates():
		if got.RequestID != res.RequestID {
			t.Errorf("update for request %d, want %d", got.RequestID, res.RequestID)
		}
	default:
		t.Error("no update published")
	}
}

func TestSessionEmptyUploadIsNoop(t *testing.T) {
	s := newTestSession()
	res := s.Upload(context.Background(), nil)
	if !errors.Is(res.Err, ErrNoFileSelected) || res.Reason() != ReasonNoFileSelected {
		t.Fatalf("err = %v", res.Err)
	}
	if s.seq.Load() != 0 {
		t.Fatal("no-op upload took a request id")
	}

	res = s.Upload(context.Background(), bytes.NewReader(nil))
	if !errors.Is(res.Err, ErrNoFileSelected) || res.RequestID != 0 {
		t.Fatalf("res = %+v", res)
	}
	if s.seq.Load() != 0 {
		t.Fatal("empty upload took a request id")
	}
	if st := s.State(); st.RequestID != 0 || st.Err != nil || st.Processing {
		t.Fatalf("empty upload changed state: %+v", st)
	}
}

func TestSessionFailureKeepsPreviousOutput(t *testing.T) {
	s := newTestSession()
	good := s.Upload(context.Background(), bytes.NewReader(encodePNG(t, solidImage(10, 10, color.NRGBA{0, 0, 255, 255}))))
	if good.Err != nil {
		t.Fatalf("Upload: %v", good.Err)
	}

	bad := s.Upload(context.Background(), bytes.NewReader([]byte("garbage")))
	if bad.Reason() != ReasonUndecodable {
		t.Fatalf("reason = %q", bad.Reason())
	}
	st := s.State()
	if st.Output != good.Output {
		t.Error("failed upload replaced the previous output")
	}
	if !errors.Is(st.Err, ErrUndecodable) || st.Processing {
		t.Errorf("failure not recorded: %+v", st)
	}
}

func TestSessionSetBlockSizeReusesSource(t *testing.T) {
	s := newTestSession()
	res := s.Upload(context.Background(), bytes.NewReader(encodePNG(t, solidImage(60, 60, color.NRGBA{0, 255, 0, 255}))))
	if res.Err != nil {
		t.Fatalf("Upload: %v", res.Err)
	}
	src := s.State().Source

	again := s.SetBlockSize(context.Background(), 20)
	if again.Err != nil {
		t.Fatalf("SetBlockSize: %v", again.Err)
	}
	st := s.State()
	if st.Source != src {
		t.Error("source was decoded again")
	}
	if st.Params.BlockSize != 20 || st.Output.BlockSize != 20 || st.Output == res.Output {
		t.Errorf("output not re-rendered at block size 20: %+v", st.Output)
	}

	mode := s.SetMode(context.Background(), ModeASCII)
	if mode.Err != nil || mode.Output.Filename != "ascii_art.png" {
		t.Fatalf("SetMode: %+v", mode)
	}
}

func TestSessionParametersBeforeUpload(t *testing.T) {
	s := newTestSession()
	res := s.SetBlockSize(context.Background(), 5)
	if !errors.Is(res.Err, ErrNoImage) {
		t.Fatalf("err = %v, want ErrNoImage", res.Err)
	}
	if s.State().Params.BlockSize != 5 {
		t.Error("block size not kept for the next upload")
	}
	if res := s.SetBlockSize(context.Background(), 99); !errors.Is(res.Err, ErrInvalidBlockSize) {
		t.Errorf("err = %v, want ErrInvalidBlockSize", res.Err)
	}

	up := s.Upload(context.Background(), bytes.NewReader(encodePNG(t, solidImage(10, 10, color.NRGBA{0, 0, 0, 255}))))
	if up.Err != nil || up.Output.BlockSize != 5 {
		t.Fatalf("upload after SetBlockSize: %+v", up)
	}
}

// blockingReader hands out its first byte at once and the rest only after
// release is closed.
type blockingReader struct {
	release chan struct{}
	r       io.Reader
	started bool
}

func newBlockingReader(data []byte) *blockingReader {
	return &blockingReader{release: make(chan struct{}), r: bytes.NewReader(data)}
}

func (b *blockingReader) Read(p []byte) (int, error) {
	if !b.started {
		b.started = true
		return b.r.Read(p[:1])
	}
	<-b.release
	return b.r.Read(p)
}

// startBlockedUpload runs an upload of data that stalls after taking its
// request id. Closing the reader's release lets it finish.
func startBlockedUpload(t *testing.T, s *Session, data []byte) (*blockingReader, <-chan Result) {
	t.Helper()
	before := s.seq.Load()
	br := newBlockingReader(data)
	done := make(chan Result, 1)
	go func() {
		done <- s.Upload(context.Background(), br)
	}()
	for s.seq.Load() == before {
		runtime.Gosched()
	}
	return br, done
}

func TestSessionDiscardsStaleUpload(t *testing.T) {
	s := newTestSession()
	first, done := startBlockedUpload(t, s, encodePNG(t, solidImage(10, 10, color.NRGBA{255, 0, 0, 255})))

	// the second upload finishes first, then the slow read completes
	second := s.Upload(context.Background(), bytes.NewReader(encodePNG(t, solidImage(20, 20, color.NRGBA{0, 0, 255, 255}))))
	if second.Err != nil {
		t.Fatalf("second upload: %v", second.Err)
	}
	close(first.release)
	firstRes := <-done

	if !errors.Is(firstRes.Err, ErrStale) || firstRes.Reason() != ReasonStale {
		t.Fatalf("late result err = %v, want ErrStale", firstRes.Err)
	}
	if firstRes.RequestID >= second.RequestID {
		t.Fatalf("late upload got id %d, second %d", firstRes.RequestID, second.RequestID)
	}
	if st := s.State(); st.Output != second.Output || st.Source.Width != 20 || st.Processing {
		t.Fatal("stale upload overwrote the committed output")
	}
}

func TestSessionEmptyUploadKeepsPendingUpload(t *testing.T) {
	s := newTestSession()
	pending, done := startBlockedUpload(t, s, encodePNG(t, solidImage(30, 30, color.NRGBA{0, 255, 0, 255})))
	id := s.seq.Load()

	if res := s.Upload(context.Background(), bytes.NewReader(nil)); !errors.Is(res.Err, ErrNoFileSelected) {
		t.Fatalf("empty upload err = %v", res.Err)
	}
	if s.seq.Load() != id {
		t.Fatal("empty upload took a request id")
	}

	close(pending.release)
	res := <-done
	if res.Err != nil || res.RequestID != id {
		t.Fatalf("pending upload: %+v", res)
	}
	if st := s.State(); st.Processing || st.Source == nil || st.Output != res.Output {
		t.Fatalf("pending upload not committed: %+v", st)
	}
}

func TestSessionBlockSizeDuringUpload(t *testing.T) {
	s := newTestSession()
	pending, done := startBlockedUpload(t, s, encodePNG(t, solidImage(40, 40, color.NRGBA{0, 0, 255, 255})))
	id := s.seq.Load()

	change := s.SetBlockSize(context.Background(), 4)
	if !errors.Is(change.Err, ErrDeferred) || change.Reason() != ReasonDeferred || change.RequestID != id {
		t.Fatalf("change during upload: %+v", change)
	}
	if st := s.State(); st.Params.BlockSize != 4 || !st.Processing {
		t.Fatalf("change not recorded: %+v", st)
	}

	close(pending.release)
	res := <-done
	if res.Err != nil || res.Output.BlockSize != 4 {
		t.Fatalf("upload after change: %+v", res)
	}
	if st := s.State(); st.Processing || st.Source == nil || st.Output != res.Output {
		t.Fatalf("upload not committed: %+v", st)
	}
}

func TestSessionBlockSizeDuringReplacement(t *testing.T) {
	s := newTestSession()
	if res := s.Upload(context.Background(), bytes.NewReader(encodePNG(t, solidImage(10, 10, color.NRGBA{255, 0, 0, 255})))); res.Err != nil {
		t.Fatalf("Upload: %v", res.Err)
	}

	pending, done := startBlockedUpload(t, s, encodePNG(t, solidImage(50, 20, color.NRGBA{0, 255, 0, 255})))
	if change := s.SetMode(context.Background(), ModeASCII); !errors.Is(change.Err, ErrDeferred) {
		t.Fatalf("change during upload err = %v", change.Err)
	}
	close(pending.release)
	res := <-done
	if res.Err != nil || res.Output.Mode != ModeASCII {
		t.Fatalf("replacement: %+v", res)
	}
	if st := s.State(); st.Source.Width != 50 || st.Output != res.Output {
		t.Fatal("previous image rendered instead of the new upload")
	}
}

func TestSessionUploadWith(t *testing.T) {
	s := newTestSession()
	src := encodePNG(t, solidImage(30, 30, color.NRGBA{0, 0, 0, 255}))

	bad := s.UploadWith(context.Background(), bytes.NewReader(src), RenderParameters{BlockSize: 0, Mode: ModePixel})
	if !errors.Is(bad.Err, ErrInvalidBlockSize) || s.seq.Load() != 0 {
		t.Fatalf("invalid parameters: %+v", bad)
	}

	p := RenderParameters{BlockSize: 5, Mode: ModeASCII, EdgeThreshold: DefaultEdgeThreshold}
	res := s.UploadWith(context.Background(), bytes.NewReader(src), p)
	if res.Err != nil || res.Output.Mode != ModeASCII || res.Output.BlockSize != 5 {
		t.Fatalf("UploadWith: %+v", res)
	}
	if s.seq.Load() != 1 || s.State().Params != p {
		t.Errorf("seq = %d params = %+v", s.seq.Load(), s.State().Params)
	}
}
