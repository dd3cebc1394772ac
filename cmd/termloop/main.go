// termloop is a terminal directory status viewer.
//
// Input, a periodic tick and background scan completions are merged by the
// engine loop; the terminal is restored on every exit path.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/lixenwraith/termloop/audio"
	"github.com/lixenwraith/termloop/config"
	"github.com/lixenwraith/termloop/core"
	"github.com/lixenwraith/termloop/engine"
	"github.com/lixenwraith/termloop/logging"
	"github.com/lixenwraith/termloop/notify"
	"github.com/lixenwraith/termloop/poll"
	"github.com/lixenwraith/termloop/terminal"
	"github.com/lixenwraith/termloop/workspace"
)

var (
	rootFlag   = flag.String("root", "", "Directory to view (default: workspace.root from config)")
	configFlag = flag.String("config", "", "Config file (default: $TERMLOOP_CONFIG or ~/.config/termloop/config.toml)")
)

func main() {
	flag.Parse()
	os.Exit(runRecovered(nil, *configFlag, *rootFlag))
}

// runRecovered is run with panic recovery for the main goroutine
// The deferred release in runSession has already run while unwinding; HandleCrash reports and exits
func runRecovered(factory terminal.ScreenFactory, configPath, root string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
			code = 1
		}
	}()
	return run(factory, configPath, root)
}

// run loads settings, runs one session and maps the outcome to an exit code
func run(factory terminal.ScreenFactory, configPath, root string) int {
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if root != "" {
		cfg.Workspace.Root = root
	}

	if err := logging.Setup(cfg.Log.Enabled, cfg.Log.Path, cfg.Log.Level); err != nil {
		fmt.Fprintf(os.Stderr, "Logging disabled: %v\n", err)
	}

	logger := log.WithField("session", uuid.NewString())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	err = runSession(ctx, factory, cfg, logger)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		logger.Info("clean exit")
		return 0
	case errors.Is(err, terminal.ErrDevice):
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
	case errors.Is(err, engine.ErrChannelDisconnected):
		fmt.Fprintf(os.Stderr, "Event source terminated: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	logger.WithError(err).Error("exit")
	return 1
}

// runSession owns the terminal for the duration of the loop
// Release is deferred right after acquire so every return and panic path restores the device
func runSession(ctx context.Context, factory terminal.ScreenFactory, cfg config.Config, logger *log.Entry) error {
	session, err := terminal.Acquire(factory)
	if err != nil {
		return err
	}
	defer session.Release()

	// Crash in any goroutine releases the same session
	// It stays registered after return: a released session makes HandleCrash skip the reset
	core.RegisterSession(session)

	var opts []workspace.Option
	if cfg.Audio.Enabled {
		chime := audio.NewChime(cfg.Audio.Volume)
		if err := chime.Initialize(); err != nil {
			logger.WithError(err).Warn("audio disabled")
		} else {
			defer chime.Cleanup()
			opts = append(opts, workspace.WithPlayer(chime))
		}
	}

	notifier := notify.New()

	app, err := workspace.New(ctx, notifier.Sender(), workspace.Config{
		Root:         cfg.Workspace.Root,
		ScanInterval: cfg.Workspace.ScanInterval,
		Watch:        cfg.Workspace.Watch,
		ShowHidden:   cfg.Workspace.ShowHidden,
	}, opts...)
	if err != nil {
		return err
	}
	defer app.Close()

	screen := session.Screen()
	batches := poll.Start(ctx, screen, poll.Config{
		PollInterval: cfg.Poll.Interval,
		TickInterval: cfg.Poll.TickInterval,
	})

	loop := engine.New(app, screen, batches, notifier.C(),
		engine.WithInitialUpdate(),
		engine.WithLogger(logger.WithField("component", "engine")),
	)
	return loop.Run(ctx)
}
