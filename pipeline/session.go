package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
)

// State is an immutable snapshot of a session. Every transition stores a new
// State; fields of a published State are never modified.
type State struct {
	// RequestID is the id of the request that produced this snapshot.
	RequestID  uint64
	Processing bool
	// Source is the decoded and scaled upload that parameter changes re-render.
	Source *PixelBuffer
	Params RenderParameters
	// Output is the last successful result. Failures leave it untouched.
	Output *Output
	// Err is the failure of the latest request, nil after a success.
	Err error
}

// Result is what a single request produced.
type Result struct {
	RequestID uint64
	Output    *Output
	Err       error
}

func (r Result) Reason() Reason {
	return ReasonOf(r.Err)
}

// Session serializes interactive runs for one user. Each Upload and each
// re-render takes the next request id; a run only commits if its id is still
// the newest when it finishes, so overlapping uploads resolve to the latest one.
// Parameter changes made while an upload is pending are folded into that
// upload instead of superseding it.
type Session struct {
	opts   DecodeOptions
	logger *log.Logger

	seq   atomic.Uint64
	state atomic.Pointer[State]

	mu       sync.Mutex // guards the fields below and every commit
	latest   uint64     // newest request allowed to commit
	uploadID uint64     // newest upload
	pending  bool       // uploadID has not committed yet

	updates chan State
}

// NewSession starts an idle session with params as the initial parameters.
// A nil logger logs to log.Default().
func NewSession(opts DecodeOptions, params RenderParameters, logger *log.Logger) *Session {
	if logger == nil {
		logger = log.Default()
	}
	s := &Session{
		opts:    opts.withDefaults(),
		logger:  logger,
		updates: make(chan State, 1),
	}
	s.state.Store(&State{Params: params})
	return s
}

// State returns the current snapshot.
func (s *Session) State() State {
	return *s.state.Load()
}

// Updates delivers committed snapshots. Only the most recent undelivered
// snapshot is kept; a slow reader skips intermediate ones.
func (s *Session) Updates() <-chan State {
	return s.updates
}

// Upload decodes r and renders it with the session's current parameters.
// The request id is taken once the first byte arrives, so a slow read that
// completes after a newer request is discarded. A nil or empty reader means
// nothing was selected: it takes no id and changes nothing.
func (s *Session) Upload(ctx context.Context, r io.Reader) Result {
	return s.runUpload(ctx, r, nil)
}

// UploadWith is Upload with the session's parameters replaced by p in the
// same step, so nothing is rendered with the old ones first.
func (s *Session) UploadWith(ctx context.Context, r io.Reader, p RenderParameters) Result {
	if err := p.Validate(); err != nil {
		return Result{Err: err}
	}
	return s.runUpload(ctx, r, &p)
}

func (s *Session) runUpload(ctx context.Context, r io.Reader, p *RenderParameters) Result {
	if r == nil {
		return Result{Err: ErrNoFileSelected}
	}
	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err != nil {
		if errors.Is(err, io.EOF) {
			return Result{Err: ErrNoFileSelected}
		}
		return Result{Err: fmt.Errorf("reading upload: %w", err)}
	}

	id := s.beginUpload(p)

	data, err := io.ReadAll(br)
	if err != nil {
		return s.fail(id, fmt.Errorf("reading upload: %w", err))
	}
	src, err := DecodeAndScale(ctx, bytes.NewReader(data), s.opts)
	if err != nil {
		return s.fail(id, err)
	}

	params := s.State().Params
	for {
		out, err := Stylize(ctx, src, params)
		if err != nil {
			return s.fail(id, err)
		}
		changed := false
		ok := s.commit(id, func(st *State) bool {
			if st.Params != params {
				params, changed = st.Params, true
				return false
			}
			st.Source, st.Output = src, out
			st.Processing, st.Err = false, nil
			return true
		})
		if changed {
			// parameters moved on while rendering
			continue
		}
		if !ok {
			return s.stale(id)
		}
		return Result{RequestID: id, Output: out}
	}
}

// beginUpload takes an id for a new upload and marks the session busy.
func (s *Session) beginUpload(p *RenderParameters) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.seq.Add(1)
	s.latest, s.uploadID, s.pending = id, id, true

	next := *s.state.Load()
	next.RequestID = id
	next.Processing = true
	if p != nil {
		next.Params = *p
	}
	s.publish(&next)
	return id
}

// SetBlockSize re-renders the loaded image at block size n without decoding it again.
func (s *Session) SetBlockSize(ctx context.Context, n int) Result {
	if err := ValidBlockSize(n); err != nil {
		return Result{Err: err}
	}
	return s.rerender(ctx, func(p *RenderParameters) { p.BlockSize = n })
}

// SetMode re-renders the loaded image in mode m.
func (s *Session) SetMode(ctx context.Context, m Mode) Result {
	if m != ModePixel && m != ModeASCII {
		return Result{Err: fmt.Errorf("%w: %q", ErrInvalidMode, m)}
	}
	return s.rerender(ctx, func(p *RenderParameters) { p.Mode = m })
}

// rerender applies change and renders the loaded image with it. While an
// upload is pending the change is only recorded, and the result carries the
// upload's id with ErrDeferred.
func (s *Session) rerender(ctx context.Context, change func(*RenderParameters)) Result {
	s.mu.Lock()
	next := *s.state.Load()
	change(&next.Params)

	if s.pending {
		id := s.uploadID
		s.publish(&next)
		s.mu.Unlock()
		return Result{RequestID: id, Err: ErrDeferred}
	}

	id := s.seq.Add(1)
	s.latest = id
	next.RequestID = id
	next.Processing = next.Source != nil
	s.publish(&next)
	src, params := next.Source, next.Params
	s.mu.Unlock()

	if src == nil {
		// Parameters are kept for the next upload.
		return Result{RequestID: id, Err: ErrNoImage}
	}

	out, err := Stylize(ctx, src, params)
	if err != nil {
		return s.fail(id, err)
	}
	ok := s.commit(id, func(st *State) bool {
		st.Output = out
		st.Processing, st.Err = false, nil
		return true
	})
	if !ok {
		return s.stale(id)
	}
	return Result{RequestID: id, Output: out}
}

func (s *Session) fail(id uint64, err error) Result {
	ok := s.commit(id, func(st *State) bool {
		st.Processing = false
		st.Err = err
		return true
	})
	if !ok {
		return s.stale(id)
	}
	return Result{RequestID: id, Err: err}
}

func (s *Session) stale(id uint64) Result {
	s.logger.Printf("pipeline: dropping result of request %d, latest is %d", id, s.seq.Load())
	return Result{RequestID: id, Err: ErrStale}
}

// commit applies fn to a copy of the current state and publishes it, provided
// id is still the newest request and fn returns true. It reports whether the
// commit happened.
func (s *Session) commit(id uint64, fn func(*State) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.latest {
		return false
	}
	next := *s.state.Load()
	next.RequestID = id
	if !fn(&next) {
		return false
	}
	if id == s.uploadID && !next.Processing {
		s.pending = false
	}
	s.publish(&next)
	return true
}

// publish stores next and replaces any undelivered update. s.mu must be held.
func (s *Session) publish(next *State) {
	s.state.Store(next)

	select {
	case <-s.updates:
	default:
	}
	s.updates <- *next
}
