package machine

import (
	"testing"

	"github.com/retroenv/chip8emu/internal/display"
)

// mockPeripherals records all requests of the machine and keeps the display
// in a real bitmap.
type mockPeripherals struct {
	bitmap display.Bitmap
	keys   [KeyCount]bool

	clears     int
	audio      bool
	audioCalls int
}

func (m *mockPeripherals) ClearDisplay() {
	m.clears++
	m.bitmap.Clear()
}

func (m *mockPeripherals) TogglePixel(x, y uint8) bool {
	return m.bitmap.Toggle(int(x), int(y))
}

func (m *mockPeripherals) IsKeyPressed(key uint8) bool {
	return m.keys[key]
}

func (m *mockPeripherals) SetAudioEnabled(enabled bool) {
	m.audio = enabled
	m.audioCalls++
}

// fixedSource is a random source that always returns the same value.
type fixedSource int64

func (s fixedSource) Int63() int64 { return int64(s) }
func (s fixedSource) Seed(int64)   {}

// newTestMachine returns a machine with the given program loaded.
func newTestMachine(t *testing.T, program ...uint16) (*Machine, *mockPeripherals) {
	t.Helper()

	peripherals := &mockPeripherals{}
	m := New(peripherals, WithRandSource(fixedSource(0)))

	image := make([]byte, 0, len(program)*opcodeSize)
	for _, opcode := range program {
		image = append(image, byte(opcode>>8), byte(opcode))
	}
	if err := m.Load(image); err != nil {
		t.Fatalf("loading program: %v", err)
	}
	return m, peripherals
}

// step executes the given number of cycles and fails the test on error.
func step(t *testing.T, m *Machine, cycles int) {
	t.Helper()

	for i := 0; i < cycles; i++ {
		if err := m.Step(); err != nil {
			t.Fatalf("cycle %d: %v", i, err)
		}
	}
}

// pixels returns the number of set display pixels.
func (m *mockPeripherals) pixels() int {
	var n int
	for y := 0; y < display.Height; y++ {
		for x := 0; x < display.Width; x++ {
			if m.bitmap.Pixel(x, y) {
				n++
			}
		}
	}
	return n
}
