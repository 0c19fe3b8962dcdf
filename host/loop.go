// Package host runs a scope the way an audio host would: audio callbacks,
// paint requests and input events are delivered one at a time on a single
// goroutine.
package host

import (
	"context"
	"errors"
	"image"

	"github.com/golang/glog"

	"github.com/peragwin/xyscope/audio"
	"github.com/peragwin/xyscope/scope"
)

// ErrClosed is returned for requests made after the loop stopped.
var ErrClosed = errors.New("host loop closed")

type paintResult struct {
	img *image.RGBA
	err error
}

type request struct {
	fn   func(*scope.Scope)
	done chan struct{}
}

// Loop owns a Scope. Every method is safe to call from any goroutine; the
// work itself runs on the goroutine executing Run.
type Loop struct {
	scope    *scope.Scope
	requests chan request
	stopped  chan struct{}
}

// NewLoop creates a loop for s. Nothing happens until Run is called.
func NewLoop(s *scope.Scope) *Loop {
	return &Loop{
		scope:    s,
		requests: make(chan request),
		stopped:  make(chan struct{}),
	}
}

// Run serves requests until ctx is done, then shuts the scope down.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.stopped)
	defer l.scope.Shutdown()

	for {
		select {
		case <-ctx.Done():
			glog.V(1).Info("host loop stopping")
			return
		case r := <-l.requests:
			r.fn(l.scope)
			close(r.done)
		}
	}
}

// Done is closed once Run has returned and the scope is shut down.
func (l *Loop) Done() <-chan struct{} {
	return l.stopped
}

// Do runs fn on the loop goroutine and waits for it.
func (l *Loop) Do(ctx context.Context, fn func(*scope.Scope)) error {
	r := request{fn: fn, done: make(chan struct{})}
	select {
	case l.requests <- r:
	case <-l.stopped:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	// once accepted the request always completes
	<-r.done
	return nil
}

// ProcessBlock hands an audio block to the scope and returns the frame count
// it passed back.
func (l *Loop) ProcessBlock(ctx context.Context, b *audio.Block) (int, error) {
	var n int
	err := l.Do(ctx, func(s *scope.Scope) {
		n = s.ProcessBlock(b.Samples, b.Frames, b.BitsPerSample, b.Channels, b.SampleRate)
	})
	return n, err
}

// Paint renders a width x height frame. The image belongs to the scope and
// may only be read until the next Paint.
func (l *Loop) Paint(ctx context.Context, width, height int) (*image.RGBA, error) {
	var res paintResult
	if err := l.Do(ctx, func(s *scope.Scope) {
		res.img, res.err = s.Paint(width, height)
	}); err != nil {
		return nil, err
	}
	return res.img, res.err
}

// ToggleMode flips the display mode.
func (l *Loop) ToggleMode(ctx context.Context) (scope.Mode, error) {
	var m scope.Mode
	err := l.Do(ctx, func(s *scope.Scope) { m = s.ToggleMode() })
	return m, err
}

// Configure asks the scope to present its view.
func (l *Loop) Configure(ctx context.Context) error {
	var cerr error
	if err := l.Do(ctx, func(s *scope.Scope) { cerr = s.Configure() }); err != nil {
		return err
	}
	return cerr
}

// Stats reads the scope statistics.
func (l *Loop) Stats(ctx context.Context) (scope.Stats, error) {
	var st scope.Stats
	err := l.Do(ctx, func(s *scope.Scope) { st = s.Stats() })
	return st, err
}

// Parameters reads the current parameters.
func (l *Loop) Parameters(ctx context.Context) (scope.Parameters, error) {
	var p scope.Parameters
	err := l.Do(ctx, func(s *scope.Scope) { p = s.Parameters() })
	return p, err
}

// SetParameters applies p on the loop.
func (l *Loop) SetParameters(ctx context.Context, p scope.Parameters) error {
	var perr error
	if err := l.Do(ctx, func(s *scope.Scope) { perr = s.SetParameters(p) }); err != nil {
		return err
	}
	return perr
}
