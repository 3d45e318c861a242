//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package terminal

import (
	"errors"
	"runtime"
)

var errUnsupported = errors.New("raw terminal mode is not supported on " + runtime.GOOS)

type rawMode struct{}

func enterRawMode(int) (*rawMode, error) {
	return nil, errUnsupported
}

func (r *rawMode) restoreState() error {
	return nil
}

func readInput(int, []byte) (int, error) {
	return 0, errUnsupported
}
