// Package frontend defines the presentation layer interface shared by all
// frontends of the emulator.
package frontend

import (
	"github.com/retroenv/chip8emu/internal/machine"
)

// Frontend presents the machine display, plays its tone and provides the
// keypad state.
type Frontend interface {
	machine.Peripherals

	// Poll processes pending input events and presents the current frame.
	// It returns true if the user requested to quit.
	Poll() bool

	// Close releases all resources of the frontend.
	Close() error
}
