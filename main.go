package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/jedp/metronome/audio"
	"github.com/jedp/metronome/config"
	"github.com/jedp/metronome/logger"
	"github.com/jedp/metronome/osctrigger"
	"github.com/jedp/metronome/playback"
	"k8s.io/utils/clock"
)

func main() {
	// We don't process any CLI flags for now, so just run the app with a context.
	ctx := context.Background()
	Run(ctx)
}

// Run starts the metronome and serves remote control until interrupted.
func Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// initialize the logger
	logger := logger.GetProjectLogger()

	// initialize the global config
	logger.Info("Initializing config...")
	cfg, err := config.NewMetronomeConfig()
	if err != nil {
		panic("error creating config")
	}

	// initialize the audio driver and bring its lifecycle up before any
	// beat can fire
	logger.Info("Initializing audio driver...")
	driver := audio.NewBeepDriver(cfg.SampleRate)

	logger.Info("Initializing playback controller...")
	controller := playback.NewController(cfg, driver, clock.RealClock{})
	if err := controller.OnAudioLifecycleStart(); err != nil {
		logger.Fatalf("error starting audio lifecycle. err='%v'", err)
	}

	// serve remote tempo/pattern/play updates
	logger.Info("Starting OSC control server...")
	server := osctrigger.NewServer(cfg.OSCAddr, controller)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			logger.Errorf("OSC server stopped: %v", err)
			cancel()
		}
	}()

	// click at the default rhythm until a remote tells us otherwise
	controller.OnPlayStateChanged(true)

	// handle CTRL+C interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	select {
	case <-quit:
	case <-ctx.Done():
	}

	logger.Println("shutting down metronome")
	if err := controller.OnAudioLifecycleStop(); err != nil {
		logger.Errorf("error stopping audio lifecycle: %v", err)
	}
}
