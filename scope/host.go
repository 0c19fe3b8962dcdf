package scope

import "errors"

// ErrUnsupported is returned by a Host that lacks a capability.
var ErrUnsupported = errors.New("host capability not supported")

// Surface is the view the host embeds for us.
type Surface interface {
	// Invalidate asks the host for a paint request at its convenience.
	Invalidate()
	// Show brings the view to the front.
	Show() error
	// Close tears the view down.
	Close() error
}

// Host is the collaborator that drives the scope. Capabilities are resolved
// once when the scope is created.
//
// The host must deliver audio blocks, paint requests and input events one at
// a time, never concurrently. The scope does no locking of its own.
type Host interface {
	Surface() (Surface, error)
}

// SurfaceHost is a Host backed by a fixed surface. A nil S reports
// ErrUnsupported.
type SurfaceHost struct {
	S Surface
}

// Surface implements Host.
func (h SurfaceHost) Surface() (Surface, error) {
	if h.S == nil {
		return nil, ErrUnsupported
	}
	return h.S, nil
}

// NopSurface is a surface for running without a window.
type NopSurface struct{}

func (NopSurface) Invalidate()  {}
func (NopSurface) Show() error  { return nil }
func (NopSurface) Close() error { return nil }
