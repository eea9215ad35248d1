package app

import (
	"github.com/dshills/panekit/internal/device"
	"github.com/dshills/panekit/internal/terminal"
)

// redraw renders the rows changed since the last redraw, or every row
// when full is set.
func (app *Application) redraw(full bool) {
	var changes []device.Change
	app.sess.WithRenderable(func(r terminal.Renderable) {
		if full {
			r.MakeAllLinesDirty()
		}
		lines := r.VisibleLines()
		for _, y := range r.DirtyLines() {
			if y < len(lines) {
				changes = append(changes, device.LineChanges(y, lines[y])...)
			}
		}
		r.CleanDirtyLines()

		x, y, visible := r.CursorPosition()
		changes = append(changes,
			device.CursorPosition{X: x, Y: y},
			device.CursorVisibility(visible),
		)
	})

	if title := app.sess.Title(); title != app.title {
		app.title = title
		changes = append(changes, device.Title(title))
	}

	if err := app.dev.Render(changes); err != nil {
		app.log.WithError(err).Warn("render")
		return
	}
	if err := app.dev.Flush(); err != nil {
		app.log.WithError(err).Warn("flush")
	}
}
