package app

import (
	"github.com/dshills/panekit/internal/device"
	"github.com/dshills/panekit/internal/pty"
)

// handleEvent routes a device event to the pane. It returns ErrQuit for
// the detach key.
func (app *Application) handleEvent(ev device.InputEvent) error {
	switch ev.Kind {
	case device.EventResize:
		return app.handleResize(ev)
	case device.EventKey:
		return app.handleKeyEvent(ev)
	case device.EventMouse:
		return app.handleMouseEvent(ev)
	case device.EventPaste:
		return app.sess.Paste(ev.Text)
	case device.EventFocus:
		app.sess.FocusChanged(ev.Focused)
		return nil
	default:
		return nil
	}
}

func (app *Application) handleResize(ev device.InputEvent) error {
	size := pty.Size{
		Rows:        uint16(ev.Size.Rows),
		Cols:        uint16(ev.Size.Cols),
		PixelWidth:  uint16(ev.Size.PixelWidth),
		PixelHeight: uint16(ev.Size.PixelHeight),
	}
	if err := app.sess.Resize(size); err != nil {
		return err
	}
	if err := app.dev.Render([]device.Change{device.ClearScreen{}}); err != nil {
		return err
	}
	app.redraw(true)
	return nil
}

func (app *Application) handleKeyEvent(ev device.InputEvent) error {
	if ev.Key == app.detach.Code && ev.Mods == app.detach.Mods {
		return ErrQuit
	}
	return app.sess.KeyDown(ev.Key, ev.Mods)
}

// handleMouseEvent forwards mouse input only while the program in the
// pane has asked for it.
func (app *Application) handleMouseEvent(ev device.InputEvent) error {
	if !app.sess.IsMouseGrabbed() {
		return nil
	}
	return app.sess.MouseEvent(ev.Mouse)
}
