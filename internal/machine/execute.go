package machine

import (
	"fmt"

	"github.com/retroenv/chip8emu/internal/display"
)

// opcodeSize is the size of CHIP-8 instructions in bytes.
const opcodeSize = 2

// Step executes a single fetch-decode-execute cycle followed by a timer
// tick. Any returned error is fatal, the machine state is undefined after it.
func (m *Machine) Step() error {
	address := m.PC
	if int(address) > MemorySize-opcodeSize {
		return &InstructionError{Err: ErrProgramCounter, Address: address}
	}
	opcode := uint16(m.Memory[address])<<8 | uint16(m.Memory[address+1])

	ins, err := Decode(opcode)
	if err != nil {
		return &InstructionError{Err: ErrInvalidInstruction, Address: address, Opcode: opcode}
	}

	advance, err := m.execute(ins)
	if err != nil {
		return &InstructionError{Err: err, Address: address, Opcode: opcode, Instruction: &ins}
	}
	if advance {
		m.PC += opcodeSize
	}

	m.tickTimers()
	return nil
}

// tickTimers decrements the timers by one and enables the audio
// while the sound timer is running.
func (m *Machine) tickTimers() {
	if m.DelayTimer > 0 {
		m.DelayTimer--
	}
	if m.SoundTimer > 0 {
		m.SoundTimer--
	}
	m.peripherals.SetAudioEnabled(m.SoundTimer > 0)
}

// execute applies the instruction to the machine state. It returns whether
// the program counter has to be advanced to the next instruction.
//
//nolint:funlen,cyclop // one case per operation
func (m *Machine) execute(ins Instruction) (bool, error) {
	vx := m.V[ins.X]
	vy := m.V[ins.Y]

	switch ins.Op {
	case OpCls:
		m.peripherals.ClearDisplay()

	case OpRet:
		if m.SP == 0 {
			return false, ErrStackUnderflow
		}
		m.SP--
		m.PC = m.Stack[m.SP]

	case OpJp:
		m.PC = ins.NNN
		return false, nil

	case OpCall:
		if m.SP >= StackSize {
			return false, fmt.Errorf("%w: %d nested calls", ErrStackOverflow, StackSize)
		}
		m.Stack[m.SP] = m.PC
		m.SP++
		m.PC = ins.NNN
		return false, nil

	case OpSeByte:
		m.skipIf(vx == ins.NN)

	case OpSneByte:
		m.skipIf(vx != ins.NN)

	case OpSeReg:
		m.skipIf(vx == vy)

	case OpLdByte:
		m.V[ins.X] = ins.NN

	case OpAddByte:
		m.V[ins.X] = vx + ins.NN

	case OpLdReg:
		m.V[ins.X] = vy

	case OpOr:
		m.V[ins.X] = vx | vy

	case OpAnd:
		m.V[ins.X] = vx & vy

	case OpXor:
		m.V[ins.X] = vx ^ vy

	case OpAddReg:
		m.V[ins.X] = vx + vy
		m.V[flagRegister] = flag(uint16(vx)+uint16(vy) > 0xFF)

	case OpSub:
		m.V[ins.X] = vx - vy
		m.V[flagRegister] = flag(vx >= vy)

	case OpShr:
		m.V[ins.X] = vy >> 1
		m.V[flagRegister] = vy & 0x01

	case OpSubn:
		m.V[ins.X] = vy - vx
		m.V[flagRegister] = flag(vy >= vx)

	case OpShl:
		m.V[ins.X] = vy << 1
		m.V[flagRegister] = vy >> 7

	case OpSneReg:
		m.skipIf(vx != vy)

	case OpLdI:
		m.I = ins.NNN

	case OpJpV0:
		m.PC = ins.NNN + uint16(m.V[0])
		return false, nil

	case OpRnd:
		m.V[ins.X] = uint8(m.random.Intn(0x100)) & ins.NN

	case OpDrw:
		m.draw(vx, vy, ins.N)

	case OpSkp, OpSknp:
		if vx >= KeyCount {
			return false, fmt.Errorf("%w: %d", ErrInvalidKey, vx)
		}
		pressed := m.peripherals.IsKeyPressed(vx)
		m.skipIf(pressed == (ins.Op == OpSkp))

	case OpLdVxDT:
		m.V[ins.X] = m.DelayTimer

	case OpLdVxK:
		key, ok := m.pressedKey()
		if !ok {
			return false, nil // execute the same instruction again next cycle
		}
		m.V[ins.X] = key

	case OpLdDTVx:
		m.DelayTimer = vx

	case OpLdSTVx:
		m.SoundTimer = vx

	case OpAddI:
		m.I += uint16(vx)

	case OpLdF:
		m.I = uint16(vx) * glyphSize

	case OpLdB:
		m.write(m.I, vx/100)
		m.write(m.I+1, vx/10%10)
		m.write(m.I+2, vx%10)

	case OpStore:
		for i := uint16(0); i <= uint16(ins.X); i++ {
			m.write(m.I+i, m.V[i])
		}
		m.I += uint16(ins.X) + 1

	case OpLoad:
		for i := uint16(0); i <= uint16(ins.X); i++ {
			m.V[i] = m.read(m.I + i)
		}
		m.I += uint16(ins.X) + 1

	default:
		return false, ErrInvalidInstruction
	}

	return true, nil
}

// skipIf skips the next instruction if the condition is met.
func (m *Machine) skipIf(condition bool) {
	if condition {
		m.PC += opcodeSize
	}
}

// draw XORs an n byte sprite read from memory at I onto the display with
// its top left corner at x, y. The origin wraps around the display edges,
// sprite pixels that extend past the edges are clipped.
func (m *Machine) draw(x, y, n uint8) {
	x %= display.Width
	y %= display.Height

	var collision bool
	for row := uint8(0); row < n; row++ {
		py := y + row
		if py >= display.Height {
			break
		}

		sprite := m.read(m.I + uint16(row))
		for col := uint8(0); col < 8; col++ {
			if sprite&(0x80>>col) == 0 {
				continue
			}
			px := x + col
			if px >= display.Width {
				break
			}
			if m.peripherals.TogglePixel(px, py) {
				collision = true
			}
		}
	}
	m.V[flagRegister] = flag(collision)
}

// pressedKey returns the highest pressed key.
func (m *Machine) pressedKey() (uint8, bool) {
	for key := int(KeyCount - 1); key >= 0; key-- {
		if m.peripherals.IsKeyPressed(uint8(key)) {
			return uint8(key), true
		}
	}
	return 0, false
}

func (m *Machine) read(address uint16) byte {
	return m.Memory[address&addressMask]
}

func (m *Machine) write(address uint16, value byte) {
	m.Memory[address&addressMask] = value
}

func flag(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
