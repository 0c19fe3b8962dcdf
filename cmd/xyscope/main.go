package main

import (
	"context"
	"flag"
	"image"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/peragwin/xyscope/audio/capture"
	"github.com/peragwin/xyscope/config"
	"github.com/peragwin/xyscope/gfx/skgrid"
	"github.com/peragwin/xyscope/gfx/surface"
	"github.com/peragwin/xyscope/host"
	"github.com/peragwin/xyscope/scope"
)

var (
	configPath = flag.String("config", "xyscope.yaml", "configuration file; created on exit to remember the window")

	headless    = flag.Bool("headless", false, "run without initializing OpenGL display")
	listDevices = flag.Bool("list-devices", false, "print the audio input devices and exit")
	device      = flag.String("device", "", "audio input device name (default input when empty)")
	play        = flag.Bool("play", false, "also play the audio through the default output device")
	loopFiles   = flag.Bool("loop", false, "repeat the input files")

	listen    = flag.String("listen", "", "address of the control API, e.g. :8080")
	advertise = flag.Bool("advertise", false, "announce the control API over mDNS")
	broker    = flag.String("mqtt", "", "mqtt broker url for status messages, e.g. tcp://localhost:1883")
	remote    = flag.String("remote", "", "ip:port of remote grid")
	gridDrv   = flag.String("grid", "", "grid driver: skgrid (remote) or panel (rpi builds)")
	frameRate = flag.Int("frame-rate", 0,
		"frame rate to target when rendering to something other than opengl")
)

// applyFlags lets flags given on the command line override the file.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "device":
			cfg.Audio.Device = *device
		case "play":
			cfg.Audio.Play = *play
		case "loop":
			cfg.Files.Loop = *loopFiles
		case "listen":
			cfg.Control.Listen = *listen
		case "advertise":
			cfg.Control.Advertise = *advertise
		case "mqtt":
			cfg.MQTT.Broker = *broker
		case "remote":
			cfg.Grid.Remote = *remote
		case "grid":
			cfg.Grid.Driver = *gridDrv
		case "frame-rate":
			cfg.Grid.FrameRate = *frameRate
		}
	})
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if *listDevices {
		if err := capture.PrintDevices(); err != nil {
			glog.Exitf("listing devices: %v", err)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		glog.Exitf("loading %s: %v", *configPath, err)
	}
	applyFlags(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var (
		disp *surface.Display
		surf scope.Surface = scope.NopSurface{}
	)
	if !*headless {
		// The graphics have to be the first thing we initialize on macOS
		// since the window must live on the main thread.
		runtime.LockOSThread()
		w := cfg.Window
		disp, err = surface.New(ctx, &surface.Config{
			X: w.X, Y: w.Y, Width: w.Width, Height: w.Height,
			Title: "xyscope",
		})
		if err != nil {
			glog.Exitf("error creating display: %v", err)
		}
		surf = disp
	}

	sc, err := scope.New(scope.SurfaceHost{S: surf}, &cfg.Scope)
	if err != nil {
		glog.Exitf("%v", err)
	}
	loop := host.NewLoop(sc)
	go loop.Run(ctx)
	if err := loop.Configure(ctx); err != nil {
		glog.Errorf("configure: %v", err)
	}

	mirror := startGrid(ctx, cfg.Grid)
	paint := func(w, h int) (*image.RGBA, error) {
		var (
			img  *image.RGBA
			perr error
		)
		if err := loop.Do(ctx, func(s *scope.Scope) {
			img, perr = s.Paint(w, h)
			if mirror != nil && perr == nil {
				mirror.Capture(img)
			}
		}); err != nil {
			return nil, err
		}
		return img, perr
	}

	go func() {
		if err := runAudio(ctx, cfg, flag.Args(), loop); err != nil {
			glog.Errorf("audio: %v", err)
			cancel()
		}
	}()
	startControl(ctx, cfg.Control, loop)
	startTelemetry(ctx, cfg.MQTT, loop)

	if disp != nil {
		disp.SetPaintFunc(paint)
		disp.OnClick(func() {
			if _, err := loop.ToggleMode(ctx); err != nil {
				glog.V(1).Infof("toggle: %v", err)
			}
		})
		disp.Run()
		b := disp.Bounds()
		if err := config.SaveWindow(*configPath, config.Window{
			X: b.X, Y: b.Y, Width: b.Width, Height: b.Height,
		}); err != nil {
			glog.Warningf("saving window geometry: %v", err)
		}
		cancel()
	} else {
		if mirror != nil {
			go paintHeadless(ctx, cfg, paint)
		}
		<-ctx.Done()
	}
	<-loop.Done()
	glog.Info("bye")
}

// paintHeadless drives paints at the configured window size so a grid
// mirror has frames without a window.
func paintHeadless(ctx context.Context, cfg *config.Config, paint surface.PaintFunc) {
	rate := cfg.Grid.FrameRate
	if rate <= 0 {
		rate = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := paint(cfg.Window.Width, cfg.Window.Height); err != nil {
				glog.V(1).Infof("paint: %v", err)
			}
		}
	}
}

// startGrid mirrors the scope onto the configured grid. If the grid fails it
// is opened again every 10 seconds.
func startGrid(ctx context.Context, cfg config.GridConfig) *skgrid.Mirror {
	if !cfg.Enabled() {
		return nil
	}
	rate := cfg.FrameRate
	if rate <= 0 {
		rate = 30
	}
	opts := skgrid.Options{Transpose: cfg.Transpose, PanelType: cfg.PanelType}
	name := cfg.Driver
	if name == "" {
		name = cfg.Remote
	}

	// the mirror works in logical coordinates, which transpose swaps
	r := image.Rect(0, 0, cfg.Columns, cfg.Rows)
	if cfg.Transpose {
		r = image.Rect(0, 0, cfg.Rows, cfg.Columns)
	}
	mirror := skgrid.NewMirror(r)

	go func() {
		delay := time.NewTicker(10 * time.Second)
		defer delay.Stop()
		for {
			grid, err := skgrid.Open(cfg.Columns, cfg.Rows, cfg.Driver, cfg.Remote, opts)
			if err != nil {
				glog.Errorf("could not open grid %s: %v", name, err)
			} else {
				glog.Infof("mirroring to grid %s", name)
				if err := mirror.Run(ctx, grid, rate); err != nil {
					glog.Errorf("grid %s: %v", name, err)
				}
			}
			if ctx.Err() != nil {
				return
			}
			glog.Info("retrying the grid in 10 seconds")
			select {
			case <-ctx.Done():
				return
			case <-delay.C:
			}
		}
	}()
	return mirror
}
