//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package terminal

import (
	"errors"

	"golang.org/x/sys/unix"
)

// rawMode stores the terminal state to restore when leaving raw mode.
type rawMode struct {
	fd    int
	saved unix.Termios
}

// enterRawMode switches the terminal to unbuffered input without echo and
// non blocking reads.
func enterRawMode(fd int) (*rawMode, error) {
	current, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, err
	}

	raw := makeRaw(*current)
	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, &raw); err != nil {
		return nil, err
	}
	return &rawMode{fd: fd, saved: *current}, nil
}

// makeRaw returns the termios settings of cfmakeraw(3) with two
// differences: output post processing stays on so that "\r\n" keeps
// working, and ISIG stays set so Ctrl+C still cancels the emulation.
// Reads return immediately, with or without pending input.
func makeRaw(t unix.Termios) unix.Termios {
	const (
		inputFlags = unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
			unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
		localFlags = unix.ECHO | unix.ECHONL | unix.ICANON | unix.IEXTEN
	)

	t.Iflag &^= inputFlags
	t.Lflag &^= localFlags
	t.Cflag = t.Cflag&^(unix.CSIZE|unix.PARENB) | unix.CS8
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 0
	return t
}

func (r *rawMode) restoreState() error {
	return unix.IoctlSetTermios(r.fd, ioctlSetTermios, &r.saved)
}

// readInput reads the pending input bytes without blocking.
func readInput(fd int, buf []byte) (int, error) {
	n, err := unix.Read(fd, buf)
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
		return 0, nil
	}
	if n < 0 {
		n = 0
	}
	return n, err
}
