package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
	"github.com/spf13/cobra"

	"github.com/dshills/panekit/internal/app"
	"github.com/dshills/panekit/internal/clipboard"
	"github.com/dshills/panekit/internal/config"
	"github.com/dshills/panekit/internal/device"
	"github.com/dshills/panekit/internal/logging"
	"github.com/dshills/panekit/internal/pane"
	"github.com/dshills/panekit/internal/pty"
)

func newRunCmd(g *globalOptions) *cobra.Command {
	var (
		logFile string
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "run [flags] [-- command [args...]]",
		Short: "Attach a pane to this terminal",
		Long: "Run command (the configured shell by default) in a pane attached to this\n" +
			"terminal. Press Ctrl+] to detach.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAttach(cmd.Context(), g, args, logFile, watch)
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while attached")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload the log level when the config file changes")
	return cmd
}

// openDevice prefers the controlling tty and falls back to tcell.
func openDevice(log *logrus.Entry) (device.Device, error) {
	tty, err := device.OpenTTY(log)
	if err == nil {
		return tty, nil
	}
	log.WithError(err).Debug("tty unavailable, using screen")
	return device.NewScreen(log)
}

func runAttach(ctx context.Context, g *globalOptions, args []string, logFile string, watch bool) error {
	cfg, err := g.load()
	if err != nil {
		return err
	}

	// The terminal belongs to the pane while attached, so logs go to a
	// file or nowhere.
	log := logging.Discard()
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		lc := cfg.Log.Logging()
		lc.Output = f
		log = logging.New(lc)
	}

	c, err := command(cfg, args)
	if err != nil {
		return err
	}
	clip, err := clipboard.New(cfg.Clipboard, os.Stdout)
	if err != nil {
		return err
	}

	dev, err := openDevice(log)
	if err != nil {
		return err
	}
	if err := dev.SetRawMode(); err != nil {
		dev.Close()
		return err
	}

	size := pty.Size{Rows: uint16(cfg.Rows), Cols: uint16(cfg.Cols)}
	if ss, err := dev.ScreenSize(); err == nil && ss.Rows > 0 && ss.Cols > 0 {
		size = pty.Size{
			Rows:        uint16(ss.Rows),
			Cols:        uint16(ss.Cols),
			PixelWidth:  uint16(ss.PixelWidth),
			PixelHeight: uint16(ss.PixelHeight),
		}
	}

	sess, err := pane.Spawn(c, pane.SpawnOptions{
		Size:       size,
		Scrollback: cfg.Scrollback,
		Domain:     pane.NewDomainID(),
		Clipboard:  clip,
		Logger:     log,
	})
	if err != nil {
		dev.Close()
		return err
	}
	defer sess.Close()

	application, err := app.New(app.Options{Device: dev, Session: sess, Logger: log})
	if err != nil {
		dev.Close()
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	var wg conc.WaitGroup
	defer func() {
		stop()
		wg.Wait()
	}()

	if watch && g.configPath != "" {
		wg.Go(func() {
			err := config.Watch(ctx, g.configPath, func(c *config.Config, err error) {
				if err != nil {
					log.WithError(err).Warn("config reload failed")
					return
				}
				log.Logger.SetLevel(logging.ParseLevel(c.Log.Level))
				log.WithField("level", c.Log.Level).Info("config reloaded")
			})
			if err != nil {
				log.WithError(err).Warn("config watch stopped")
			}
		})
	}

	return application.Run(ctx)
}
