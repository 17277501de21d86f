package pipeline

import (
	"context"
	"errors"
)

var (
	// ErrNoFileSelected is returned for an empty upload. It never changes state.
	ErrNoFileSelected = errors.New("no file selected")
	// ErrUndecodable means the bytes are not an image any registered decoder understands.
	ErrUndecodable = errors.New("image could not be decoded")
	// ErrSurfaceUnavailable means no pixel buffer could be allocated for the source,
	// either because it reports a degenerate size or it exceeds the decode budget.
	ErrSurfaceUnavailable = errors.New("drawing surface unavailable")
	ErrInvalidBlockSize   = errors.New("invalid block size")
	ErrInvalidMode        = errors.New("invalid output mode")
	// ErrNoImage is returned when parameters change before anything was uploaded.
	ErrNoImage = errors.New("no image loaded")
	// ErrStale is returned for a run that finished after a newer request was issued.
	ErrStale = errors.New("result superseded by a newer request")
	// ErrDeferred is returned for a parameter change that the pending upload
	// will render instead.
	ErrDeferred = errors.New("change deferred to the pending upload")
)

// Reason is the machine readable failure tag surfaced to user interfaces.
type Reason string

const (
	ReasonNone               Reason = ""
	ReasonNoFileSelected     Reason = "no_file_selected"
	ReasonUndecodable        Reason = "undecodable"
	ReasonSurfaceUnavailable Reason = "surface_unavailable"
	ReasonInvalidParameters  Reason = "invalid_parameters"
	ReasonNoImage            Reason = "no_image"
	ReasonStale              Reason = "stale"
	ReasonDeferred           Reason = "deferred"
	ReasonCanceled           Reason = "canceled"
	ReasonInternal           Reason = "internal"
)

// ReasonOf maps an error returned by this package to its Reason.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrNoFileSelected):
		return ReasonNoFileSelected
	case errors.Is(err, ErrUndecodable):
		return ReasonUndecodable
	case errors.Is(err, ErrSurfaceUnavailable):
		return ReasonSurfaceUnavailable
	case errors.Is(err, ErrInvalidBlockSize), errors.Is(err, ErrInvalidMode):
		return ReasonInvalidParameters
	case errors.Is(err, ErrNoImage):
		return ReasonNoImage
	case errors.Is(err, ErrStale):
		return ReasonStale
	case errors.Is(err, ErrDeferred):
		return ReasonDeferred
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ReasonCanceled
	}
	return ReasonInternal
}
