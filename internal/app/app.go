// Package app attaches a pane to a device: it pumps the pane's output
// into the emulator, redraws the device from the emulator, and routes
// device input to the pane.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"

	"github.com/dshills/panekit/internal/device"
	"github.com/dshills/panekit/internal/logging"
	"github.com/dshills/panekit/internal/pane"
	"github.com/dshills/panekit/internal/terminal"
)

// DefaultDetachKey detaches from the pane: Ctrl+].
var DefaultDetachKey = Key{Code: terminal.Char(']'), Mods: terminal.ModCtrl}

// Key is a key chord.
type Key struct {
	Code terminal.KeyCode
	Mods terminal.Modifiers
}

// Options configures an Application.
type Options struct {
	Device  device.Device
	Session *pane.Session
	Logger  *logrus.Entry

	// DetachKey ends Run without forwarding the key. Defaults to
	// DefaultDetachKey.
	DetachKey *Key
}

// Application runs a single pane on a device.
type Application struct {
	dev    device.Device
	sess   *pane.Session
	log    *logrus.Entry
	detach Key

	title   string
	running atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates an application. It takes ownership of the device, which Run
// closes on return. The session stays owned by the caller.
func New(opts Options) (*Application, error) {
	if opts.Device == nil {
		return nil, errors.New("app: device is required")
	}
	if opts.Session == nil {
		return nil, errors.New("app: session is required")
	}
	detach := DefaultDetachKey
	if opts.DetachKey != nil {
		detach = *opts.DetachKey
	}
	return &Application{
		dev:    opts.Device,
		sess:   opts.Session,
		log:    logging.Component(opts.Logger, "app").WithField("pane", opts.Session.ID()),
		detach: detach,
	}, nil
}

// Run attaches to the pane until its output ends, the detach key is
// pressed, ctx is done, or Shutdown is called. All emulator access
// happens on the calling goroutine.
func (app *Application) Run(ctx context.Context) error {
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	app.mu.Lock()
	app.cancel = cancel
	app.mu.Unlock()

	reader, err := app.sess.Reader()
	if err != nil {
		cancel()
		app.dev.Close()
		return fmt.Errorf("attach output: %w", err)
	}

	output := make(chan []byte, 16)
	inputs := make(chan device.InputEvent, 16)

	var wg conc.WaitGroup
	wg.Go(func() {
		defer close(output)
		if err := pane.ReadOutput(reader, output); err != nil {
			app.log.WithError(err).Warn("output reader stopped")
		}
	})
	wg.Go(func() {
		app.pollInput(ctx, inputs)
	})

	defer func() {
		cancel()
		if err := app.dev.Close(); err != nil {
			app.log.WithError(err).Warn("close device")
		}
		reader.Close()
		// Unblock the reader if it is mid-send.
		for range output {
		}
		wg.Wait()
	}()

	app.redraw(true)
	for {
		select {
		case <-ctx.Done():
			return nil

		case chunk, ok := <-output:
			if !ok {
				app.log.Debug("pane output ended")
				return nil
			}
			app.sess.Feed(chunk)
			app.redraw(false)

		case ev := <-inputs:
			if err := app.handleEvent(ev); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				app.log.WithError(err).WithField("event", ev.Kind).Debug("input not delivered")
			}
		}
	}
}

// Shutdown stops a running Run.
func (app *Application) Shutdown() error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.cancel == nil {
		return ErrNotRunning
	}
	app.cancel()
	return nil
}

func (app *Application) pollInput(ctx context.Context, out chan<- device.InputEvent) {
	for {
		ev, err := app.dev.PollInput(device.Wait)
		if err != nil {
			if !errors.Is(err, device.ErrClosed) {
				app.log.WithError(err).Warn("input stopped")
			}
			return
		}
		if ev == nil {
			continue
		}
		select {
		case out <- *ev:
		case <-ctx.Done():
			return
		}
	}
}
