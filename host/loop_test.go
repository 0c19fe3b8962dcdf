package host

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peragwin/xyscope/audio"
	"github.com/peragwin/xyscope/scope"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	s, err := scope.New(scope.SurfaceHost{S: scope.NopSurface{}}, nil)
	require.NoError(t, err)
	l := NewLoop(s)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, cancel
}

func TestLoopProcessBlock(t *testing.T) {
	l, _ := startLoop(t)
	ctx := context.Background()

	b := &audio.Block{
		Samples:       make([]int16, 2*256),
		Frames:        256,
		BitsPerSample: 16,
		Channels:      2,
		SampleRate:    48000,
	}
	n, err := l.ProcessBlock(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, 256, n)

	st, err := l.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 48000, st.SampleRate)
	assert.Equal(t, 1488, st.Capacity)
	assert.Equal(t, uint64(1), st.Blocks)
}

func TestLoopConcurrentCallers(t *testing.T) {
	l, _ := startLoop(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, err := l.ProcessBlock(ctx, &audio.Block{
					Samples: make([]int16, 128), Frames: 64, BitsPerSample: 16, Channels: 2, SampleRate: 44100,
				})
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := l.Paint(ctx, 64, 64)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	st, err := l.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), st.Blocks)
	assert.Equal(t, uint64(160), st.Paints)
}

func TestLoopToggleAndParameters(t *testing.T) {
	l, _ := startLoop(t)
	ctx := context.Background()

	m, err := l.ToggleMode(ctx)
	require.NoError(t, err)
	assert.Equal(t, scope.WaveformMode, m)
	require.NoError(t, l.Configure(ctx))

	p, err := l.Parameters(ctx)
	require.NoError(t, err)
	p.DurationMs = 100
	require.NoError(t, l.SetParameters(ctx, p))
	st, err := l.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4410, st.Capacity)

	p.Fade = 999
	assert.Error(t, l.SetParameters(ctx, p))
}

func TestLoopClosed(t *testing.T) {
	l, cancel := startLoop(t)
	cancel()
	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	_, err := l.Paint(context.Background(), 10, 10)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = l.ProcessBlock(context.Background(), &audio.Block{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLoopCallerContext(t *testing.T) {
	s, err := scope.New(scope.SurfaceHost{S: scope.NopSurface{}}, nil)
	require.NoError(t, err)
	l := NewLoop(s) // never run

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = l.Stats(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
