//go:build windows

package pane

func isEIO(error) bool {
	return false
}
