package main

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/peragwin/xyscope/audio"
	"github.com/peragwin/xyscope/audio/capture"
	"github.com/peragwin/xyscope/audio/decode"
	"github.com/peragwin/xyscope/audio/output"
	"github.com/peragwin/xyscope/config"
	"github.com/peragwin/xyscope/control"
	"github.com/peragwin/xyscope/host"
	"github.com/peragwin/xyscope/telemetry"
)

// runAudio feeds the loop from the input files, or from the capture device
// when there are none, and passes the audio on to the speakers if asked.
func runAudio(ctx context.Context, cfg *config.Config, files []string, loop *host.Loop) error {
	var (
		blocks <-chan *audio.Block
		errc   <-chan error
	)
	if len(files) > 0 {
		fc := cfg.Files
		// playback paces the stream when enabled
		fc.Paced = !cfg.Audio.Play
		blocks, errc = decode.NewSource(ctx, files, fc)
	} else {
		blocks, errc = capture.NewSource(ctx, &capture.Config{
			Device:     cfg.Audio.Device,
			BlockSize:  cfg.Audio.BlockSize,
			Channels:   cfg.Audio.Channels,
			SampleRate: cfg.Audio.SampleRate,
		})
	}

	var out *output.Playback
	defer func() {
		if out != nil {
			out.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			return err
		case b, ok := <-blocks:
			if !ok {
				glog.Info("input finished")
				return nil
			}
			n, err := loop.ProcessBlock(ctx, b)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}
			if !cfg.Audio.Play {
				continue
			}
			if out == nil {
				if out, err = output.NewPlayback(b.SampleRate); err != nil {
					return err
				}
			}
			b.Frames = n
			if err := out.Write(b); err != nil {
				return err
			}
		}
	}
}

func startControl(ctx context.Context, cfg config.ControlConfig, loop *host.Loop) {
	if cfg.Listen == "" {
		return
	}
	api, err := control.NewAPI(loop)
	if err != nil {
		glog.Errorf("control API: %v", err)
		return
	}
	srv := &control.Server{
		API:          api,
		Hub:          control.NewHub(loop.Stats),
		StatusPeriod: time.Duration(cfg.StatusMs) * time.Millisecond,
		Advertise:    cfg.Advertise,
	}
	go func() {
		if err := srv.ListenAndServe(ctx, cfg.Listen); err != nil {
			glog.Errorf("control API: %v", err)
		}
	}()
}

func startTelemetry(ctx context.Context, cfg config.MQTTConfig, loop *host.Loop) {
	if cfg.Broker == "" {
		return
	}
	go func() {
		pub, err := telemetry.NewPublisher(cfg.Broker, cfg.Topic)
		if err != nil {
			glog.Errorf("telemetry: %v", err)
			return
		}
		period := time.Duration(cfg.PeriodMs) * time.Millisecond
		if period <= 0 {
			period = time.Second
		}
		pub.Run(ctx, period, loop.Stats)
	}()
}
