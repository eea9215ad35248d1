//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package device

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// TTY is unavailable on this platform; use Screen.
type TTY struct{ Device }

func OpenTTY(logger *logrus.Entry) (*TTY, error) {
	return nil, fmt.Errorf("open tty: %w", errors.ErrUnsupported)
}

func NewTTY(in, out *os.File, logger *logrus.Entry) (*TTY, error) {
	return nil, fmt.Errorf("new tty: %w", errors.ErrUnsupported)
}
