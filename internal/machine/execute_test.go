package machine

import (
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestStep_LoadImmediate(t *testing.T) {
	for x := uint16(0); x < RegisterCount; x++ {
		opcodeLd := 0x6000 | x<<8 | 0x5A
		opcodeCopy := 0x8000 | x<<8 | x<<4
		m, _ := newTestMachine(t, opcodeLd, opcodeCopy)

		step(t, m, 2)
		assert.Equal(t, uint8(0x5A), m.V[x])
		assert.Equal(t, uint16(ProgramStart+4), m.PC)
	}
}

func TestStep_LoadProgram(t *testing.T) {
	peripherals := &mockPeripherals{}
	m := New(peripherals)
	assert.NoError(t, m.Load([]byte{0x60, 0x05}))

	assert.NoError(t, m.Step())
	assert.Equal(t, uint8(5), m.V[0])
	assert.Equal(t, uint16(0x202), m.PC)
}

func TestStep_Arithmetic(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint16
		vx, vy uint8
		result uint8
		flag   uint8
	}{
		{"or", 0x8121, 0xF0, 0x0F, 0xFF, 0},
		{"and", 0x8122, 0xF3, 0x3F, 0x33, 0},
		{"xor", 0x8123, 0xFF, 0x0F, 0xF0, 0},
		{"add with carry", 0x8124, 0xFF, 0x01, 0x00, 1},
		{"add without carry", 0x8124, 0x01, 0x01, 0x02, 0},
		{"sub without borrow", 0x8125, 0x05, 0x03, 0x02, 1},
		{"sub with borrow", 0x8125, 0x03, 0x05, 0xFE, 0},
		{"sub equal", 0x8125, 0x07, 0x07, 0x00, 1},
		{"shr odd", 0x8126, 0x00, 0x05, 0x02, 1},
		{"shr even", 0x8126, 0xFF, 0x04, 0x02, 0},
		{"subn without borrow", 0x8127, 0x03, 0x05, 0x02, 1},
		{"subn with borrow", 0x8127, 0x05, 0x03, 0xFE, 0},
		{"shl high bit", 0x812E, 0x00, 0x81, 0x02, 1},
		{"shl low bits", 0x812E, 0x00, 0x41, 0x82, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestMachine(t, tt.opcode)
			m.V[1] = tt.vx
			m.V[2] = tt.vy
			m.V[0xF] = 0xAA

			step(t, m, 1)
			assert.Equal(t, tt.result, m.V[1])
			assert.Equal(t, tt.vy, m.V[2])
			if tt.opcode&0x000F >= 4 {
				assert.Equal(t, tt.flag, m.V[0xF])
			} else {
				assert.Equal(t, uint8(0xAA), m.V[0xF])
			}
		})
	}
}

func TestStep_FlagRegisterAsOperand(t *testing.T) {
	// the flag is written after the result when VF is the destination
	m, _ := newTestMachine(t, 0x8F14)
	m.V[0xF] = 0xFF
	m.V[1] = 0x02

	step(t, m, 1)
	assert.Equal(t, uint8(1), m.V[0xF])
}

func TestStep_AddImmediateWraps(t *testing.T) {
	m, _ := newTestMachine(t, 0x73FF)
	m.V[3] = 0x02
	m.V[0xF] = 0x11

	step(t, m, 1)
	assert.Equal(t, uint8(0x01), m.V[3])
	assert.Equal(t, uint8(0x11), m.V[0xF])
}

func TestStep_Skips(t *testing.T) {
	tests := []struct {
		name   string
		opcode uint16
		vx, vy uint8
		skip   bool
	}{
		{"se byte equal", 0x3142, 0x42, 0, true},
		{"se byte different", 0x3142, 0x41, 0, false},
		{"sne byte equal", 0x4142, 0x42, 0, false},
		{"sne byte different", 0x4142, 0x41, 0, true},
		{"se reg equal", 0x5120, 0x10, 0x10, true},
		{"se reg different", 0x5120, 0x10, 0x11, false},
		{"sne reg equal", 0x9120, 0x10, 0x10, false},
		{"sne reg different", 0x9120, 0x10, 0x11, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestMachine(t, tt.opcode)
			m.V[1] = tt.vx
			m.V[2] = tt.vy

			step(t, m, 1)
			expected := uint16(ProgramStart + 2)
			if tt.skip {
				expected = ProgramStart + 4
			}
			assert.Equal(t, expected, m.PC)
		})
	}
}

func TestStep_KeySkips(t *testing.T) {
	tests := []struct {
		name    string
		opcode  uint16
		pressed bool
		skip    bool
	}{
		{"skp pressed", 0xE19E, true, true},
		{"skp released", 0xE19E, false, false},
		{"sknp pressed", 0xE1A1, true, false},
		{"sknp released", 0xE1A1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, peripherals := newTestMachine(t, tt.opcode)
			m.V[1] = 0xC
			peripherals.keys[0xC] = tt.pressed

			step(t, m, 1)
			expected := uint16(ProgramStart + 2)
			if tt.skip {
				expected = ProgramStart + 4
			}
			assert.Equal(t, expected, m.PC)
		})
	}
}

func TestStep_InvalidKey(t *testing.T) {
	m, _ := newTestMachine(t, 0xE29E)
	m.V[2] = 0x10

	err := m.Step()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidKey))
	assert.True(t, IsProgrammingError(err))
}

func TestStep_Jumps(t *testing.T) {
	m, _ := newTestMachine(t, 0x1234)
	step(t, m, 1)
	assert.Equal(t, uint16(0x234), m.PC)

	m, _ = newTestMachine(t, 0xB300)
	m.V[0] = 0x12
	step(t, m, 1)
	assert.Equal(t, uint16(0x312), m.PC)
}

func TestStep_CallReturn(t *testing.T) {
	m, _ := newTestMachine(t, 0x2300)
	m.Memory[0x300] = 0x00
	m.Memory[0x301] = 0xEE

	step(t, m, 1)
	assert.Equal(t, uint16(0x300), m.PC)
	assert.Equal(t, uint8(1), m.SP)
	assert.Equal(t, uint16(ProgramStart), m.Stack[0])

	step(t, m, 1)
	assert.Equal(t, uint16(ProgramStart+2), m.PC)
	assert.Equal(t, uint8(0), m.SP)
}

func TestStep_StackOverflow(t *testing.T) {
	// calls itself until the stack is exhausted
	m, _ := newTestMachine(t, 0x2200)

	step(t, m, StackSize)
	assert.Equal(t, uint8(StackSize), m.SP)

	err := m.Step()
	assert.True(t, errors.Is(err, ErrStackOverflow))
	assert.False(t, IsProgrammingError(err))
	assert.Equal(t, uint8(StackSize), m.SP)
}

func TestStep_StackUnderflow(t *testing.T) {
	m, _ := newTestMachine(t, 0x00EE)

	err := m.Step()
	assert.True(t, errors.Is(err, ErrStackUnderflow))
	assert.Equal(t, uint8(0), m.SP)
}

func TestStep_InvalidInstruction(t *testing.T) {
	opcodes := []uint16{0x0000, 0x0123, 0x00E1, 0x8008, 0xE000, 0xF000, 0xFFFF}

	for _, opcode := range opcodes {
		m, _ := newTestMachine(t, opcode)

		err := m.Step()
		assert.True(t, errors.Is(err, ErrInvalidInstruction))

		var insErr *InstructionError
		assert.True(t, errors.As(err, &insErr))
		assert.Equal(t, opcode, insErr.Opcode)
		assert.Equal(t, uint16(ProgramStart), insErr.Address)
	}
}

func TestStep_ProgramCounterOutOfRange(t *testing.T) {
	m, _ := newTestMachine(t, 0xBFFF)
	m.V[0] = 0xFF
	step(t, m, 1)

	err := m.Step()
	assert.True(t, errors.Is(err, ErrProgramCounter))
	assert.Equal(t, "program counter out of range: $10FE", err.Error())
}

func TestStep_Draw(t *testing.T) {
	m, peripherals := newTestMachine(t, 0xD125, 0xD125)
	m.I = 0x300
	copy(m.Memory[0x300:], []byte{0xF0, 0x90, 0x90, 0x90, 0xF0})
	m.V[1] = 10
	m.V[2] = 5

	step(t, m, 1)
	assert.Equal(t, uint8(0), m.V[0xF])
	assert.Equal(t, 14, peripherals.pixels())
	assert.True(t, peripherals.bitmap.Pixel(10, 5))
	assert.True(t, peripherals.bitmap.Pixel(13, 9))
	assert.False(t, peripherals.bitmap.Pixel(11, 6))

	step(t, m, 1)
	assert.Equal(t, uint8(1), m.V[0xF])
	assert.Equal(t, 0, peripherals.pixels())
}

func TestStep_DrawCollision(t *testing.T) {
	m, peripherals := newTestMachine(t, 0xD001, 0xD101)
	m.I = 0x300
	m.Memory[0x300] = 0xC0
	m.V[1] = 1

	step(t, m, 1)
	assert.Equal(t, uint8(0), m.V[0xF])

	// overlapping the second pixel of the first sprite
	step(t, m, 1)
	assert.Equal(t, uint8(1), m.V[0xF])
	assert.True(t, peripherals.bitmap.Pixel(0, 0))
	assert.False(t, peripherals.bitmap.Pixel(1, 0))
	assert.True(t, peripherals.bitmap.Pixel(2, 0))
}

func TestStep_DrawEdges(t *testing.T) {
	// origin wraps, sprite pixels past the right and bottom edge are clipped
	m, peripherals := newTestMachine(t, 0xD122)
	m.I = 0x300
	m.Memory[0x300] = 0xFF
	m.Memory[0x301] = 0xFF
	m.V[1] = 64 + 60
	m.V[2] = 32 + 31

	step(t, m, 1)
	assert.Equal(t, 4, peripherals.pixels())
	assert.True(t, peripherals.bitmap.Pixel(60, 31))
	assert.True(t, peripherals.bitmap.Pixel(63, 31))
	assert.False(t, peripherals.bitmap.Pixel(0, 0))
}

func TestStep_ClearDisplay(t *testing.T) {
	m, peripherals := newTestMachine(t, 0x00E0)
	peripherals.bitmap.Toggle(1, 1)

	step(t, m, 1)
	assert.Equal(t, 1, peripherals.clears)
	assert.Equal(t, 0, peripherals.pixels())
}

func TestStep_Random(t *testing.T) {
	m := New(&mockPeripherals{}, WithRandSource(fixedSource(0xAB<<32)))
	assert.NoError(t, m.Load([]byte{0xC1, 0x0F}))

	step(t, m, 1)
	assert.Equal(t, uint8(0x0B), m.V[1])
}

func TestStep_WaitForKey(t *testing.T) {
	m, peripherals := newTestMachine(t, 0xF30A)

	step(t, m, 3)
	assert.Equal(t, uint16(ProgramStart), m.PC)

	peripherals.keys[0x4] = true
	peripherals.keys[0x9] = true
	step(t, m, 1)
	assert.Equal(t, uint8(0x9), m.V[3])
	assert.Equal(t, uint16(ProgramStart+2), m.PC)
}

func TestStep_Timers(t *testing.T) {
	m, peripherals := newTestMachine(t, 0xF115, 0xF218, 0x1204)
	m.V[1] = 10
	m.V[2] = 3

	step(t, m, 2)
	// the delay timer was set one cycle earlier than the sound timer
	assert.Equal(t, uint8(8), m.DelayTimer)
	assert.Equal(t, uint8(2), m.SoundTimer)
	assert.True(t, peripherals.audio)

	for cycles := 1; cycles <= 12; cycles++ {
		step(t, m, 1)
		assert.Equal(t, uint8(max(0, 8-cycles)), m.DelayTimer)
		assert.Equal(t, uint8(max(0, 2-cycles)), m.SoundTimer)
	}
	assert.False(t, peripherals.audio)
	assert.Equal(t, 14, peripherals.audioCalls)
}

func TestStep_ReadDelayTimer(t *testing.T) {
	m, _ := newTestMachine(t, 0xF507)
	m.DelayTimer = 0x20

	step(t, m, 1)
	assert.Equal(t, uint8(0x20), m.V[5])
	assert.Equal(t, uint8(0x1F), m.DelayTimer)
}

func TestStep_IndexRegister(t *testing.T) {
	m, _ := newTestMachine(t, 0xA123, 0xF41E, 0xF529)
	m.V[4] = 0x10
	m.V[5] = 0xB

	step(t, m, 2)
	assert.Equal(t, uint16(0x133), m.I)

	step(t, m, 1)
	assert.Equal(t, uint16(0xB*5), m.I)
}

func TestStep_BCD(t *testing.T) {
	m, _ := newTestMachine(t, 0xF633)
	m.V[6] = 254
	m.I = 0x400

	step(t, m, 1)
	assert.Equal(t, []byte{2, 5, 4}, m.Memory[0x400:0x403])
	assert.Equal(t, uint16(0x400), m.I)
}

func TestStep_StoreLoadRegisters(t *testing.T) {
	m, _ := newTestMachine(t, 0xF355, 0xA400, 0xF265)
	m.V = [RegisterCount]uint8{1, 2, 3, 4, 5}
	m.I = 0x400

	step(t, m, 1)
	assert.Equal(t, []byte{1, 2, 3, 4, 0}, m.Memory[0x400:0x405])
	assert.Equal(t, uint16(0x404), m.I)

	m.V = [RegisterCount]uint8{}
	step(t, m, 2)
	assert.Equal(t, uint8(1), m.V[0])
	assert.Equal(t, uint8(2), m.V[1])
	assert.Equal(t, uint8(3), m.V[2])
	assert.Equal(t, uint8(0), m.V[3])
	assert.Equal(t, uint16(0x403), m.I)
}

func TestStep_MemoryWraps(t *testing.T) {
	m, _ := newTestMachine(t, 0xF155)
	m.V[0] = 0xAA
	m.V[1] = 0xBB
	m.I = 0xFFF

	step(t, m, 1)
	assert.Equal(t, uint8(0xAA), m.Memory[0xFFF])
	assert.Equal(t, uint8(0xBB), m.Memory[0x000])
}
