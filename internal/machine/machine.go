// Package machine implements the CHIP-8 virtual machine: its state and the
// fetch-decode-execute cycle.
//
// # Memory Layout
//
// The machine has 4KB of memory (0x000-0xFFF):
//   - 0x000-0x04F: Hexadecimal font, 16 glyphs of 5 bytes each
//   - 0x050-0x1FF: Unused interpreter area
//   - ProgramStart-0xFFF: Program image, zero padded
//
// # Peripherals
//
// The machine does not own a display, keypad or speaker. Instructions that
// need them call into the Peripherals passed to New, synchronously and only
// from within Step.
package machine

import (
	"fmt"
	"math/rand"
	"time"
)

const (
	// MemorySize is the size of the addressable memory in bytes.
	MemorySize = 0x1000

	// ProgramStart is the memory address where programs get loaded and
	// execution begins.
	ProgramStart = 0x200

	// MaxProgramSize is the largest program image that fits into memory.
	MaxProgramSize = MemorySize - ProgramStart

	// StackSize is the number of nested subroutine calls supported.
	StackSize = 16

	// RegisterCount is the number of general purpose registers V0-VF.
	RegisterCount = 16

	// KeyCount is the number of keys on the keypad.
	KeyCount = 16

	flagRegister = 0xF
	addressMask  = MemorySize - 1
)

// Peripherals is the display, keypad and audio collaborator of the machine.
type Peripherals interface {
	// ClearDisplay blanks all pixels.
	ClearDisplay()
	// TogglePixel flips the pixel at x (0-63), y (0-31) and returns whether
	// the pixel became unset.
	TogglePixel(x, y uint8) bool
	// IsKeyPressed returns the current state of key 0-15.
	IsKeyPressed(key uint8) bool
	// SetAudioEnabled starts or stops the tone.
	SetAudioEnabled(enabled bool)
}

// Machine is the state of a CHIP-8 virtual machine. It is mutated only by
// Load and Step and is not safe for concurrent use.
type Machine struct {
	Memory [MemorySize]byte
	V      [RegisterCount]uint8 // general purpose registers, VF doubles as flag register
	I      uint16               // index register
	PC     uint16               // program counter

	Stack [StackSize]uint16
	SP    uint8 // number of used stack entries

	DelayTimer uint8
	SoundTimer uint8

	peripherals Peripherals
	source      rand.Source
	random      *rand.Rand
}

// Option configures optional machine behavior.
type Option func(*Machine)

// WithRandSource sets the source for the random number instruction. Load
// does not reseed an explicitly set source.
func WithRandSource(source rand.Source) Option {
	return func(m *Machine) {
		m.source = source
	}
}

// New returns a new machine using the given peripherals. The font is loaded
// and all registers and counters are zero.
func New(peripherals Peripherals, options ...Option) *Machine {
	m := &Machine{
		peripherals: peripherals,
		PC:          ProgramStart,
	}
	for _, option := range options {
		option(m)
	}
	m.seed()
	copy(m.Memory[:], font[:])
	return m
}

// Load copies the program image into memory at ProgramStart and resets the
// machine to start executing it. The memory following the image is zeroed.
func (m *Machine) Load(program []byte) error {
	if program == nil {
		return ErrNilProgram
	}
	if len(program) > MaxProgramSize {
		return fmt.Errorf("%w: %d bytes, maximum is %d", ErrProgramTooLarge, len(program), MaxProgramSize)
	}

	m.Memory = [MemorySize]byte{}
	copy(m.Memory[:], font[:])
	copy(m.Memory[ProgramStart:], program)

	m.V = [RegisterCount]uint8{}
	m.I = 0
	m.PC = ProgramStart
	m.Stack = [StackSize]uint16{}
	m.SP = 0
	m.DelayTimer = 0
	m.SoundTimer = 0

	if m.source == nil {
		m.seed()
	}
	return nil
}

// seed initializes the random number generator from the configured source
// or the wall clock.
func (m *Machine) seed() {
	source := m.source
	if source == nil {
		source = rand.NewSource(time.Now().UnixNano())
	}
	m.random = rand.New(source)
}

// font contains the sprites of the hexadecimal digits 0-F.
var font = [80]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// glyphSize is the size in bytes of a single font sprite.
const glyphSize = 5
