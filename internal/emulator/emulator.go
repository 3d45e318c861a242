// Package emulator implements the driver loop that runs a loaded program.
package emulator

import (
	"context"
	"fmt"
	"time"

	"github.com/retroenv/chip8emu/internal/frontend"
	"github.com/retroenv/retrogolib/log"
)

// CycleDelay is the pause between two executed cycles.
const CycleDelay = 6 * time.Millisecond

// Machine executes the program one cycle at a time.
type Machine interface {
	Step() error
}

// Emulator drives a machine and its frontend.
type Emulator struct {
	logger   *log.Logger
	machine  Machine
	frontend frontend.Frontend
	delay    time.Duration

	cycles uint64
}

// New returns an emulator that runs the machine on the given frontend.
func New(logger *log.Logger, machine Machine, frontend frontend.Frontend) *Emulator {
	return &Emulator{
		logger:   logger,
		machine:  machine,
		frontend: frontend,
		delay:    CycleDelay,
	}
}

// Run executes cycles until the frontend requests to quit, the context gets
// cancelled or the machine returns an error. Quitting and cancellation are
// not considered errors.
func (e *Emulator) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.delay)
	defer ticker.Stop()

	start := time.Now()
	defer func() {
		e.logger.Debug("Emulation stopped",
			log.Int("cycles", int(e.cycles)),
			log.String("duration", time.Since(start).Round(time.Millisecond).String()))
	}()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Operation cancelled")
			return nil
		default:
		}

		if e.frontend.Poll() {
			e.logger.Info("Quit requested")
			return nil
		}

		if err := e.machine.Step(); err != nil {
			return fmt.Errorf("executing cycle %d: %w", e.cycles, err)
		}
		e.cycles++

		select {
		case <-ctx.Done():
			e.logger.Info("Operation cancelled")
			return nil
		case <-ticker.C:
		}
	}
}

// Cycles returns the number of executed cycles.
func (e *Emulator) Cycles() uint64 {
	return e.cycles
}
