package machine

import (
	"fmt"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Op identifies a decoded CHIP-8 operation.
type Op uint8

// All supported operations. The comment names the opcode pattern.
const (
	OpCls      Op = iota + 1 // 00E0
	OpRet                    // 00EE
	OpJp                     // 1NNN
	OpCall                   // 2NNN
	OpSeByte                 // 3XNN
	OpSneByte                // 4XNN
	OpSeReg                  // 5XY0
	OpLdByte                 // 6XNN
	OpAddByte                // 7XNN
	OpLdReg                  // 8XY0
	OpOr                     // 8XY1
	OpAnd                    // 8XY2
	OpXor                    // 8XY3
	OpAddReg                 // 8XY4
	OpSub                    // 8XY5
	OpShr                    // 8XY6
	OpSubn                   // 8XY7
	OpShl                    // 8XYE
	OpSneReg                 // 9XY0
	OpLdI                    // ANNN
	OpJpV0                   // BNNN
	OpRnd                    // CXNN
	OpDrw                    // DXYN
	OpSkp                    // EX9E
	OpSknp                   // EXA1
	OpLdVxDT                 // FX07
	OpLdVxK                  // FX0A
	OpLdDTVx                 // FX15
	OpLdSTVx                 // FX18
	OpAddI                   // FX1E
	OpLdF                    // FX29
	OpLdB                    // FX33
	OpStore                  // FX55
	OpLoad                   // FX65
)

// mnemonics maps every operation to the CHIP-8 instruction it belongs to.
var mnemonics = map[Op]*chip8.Instruction{
	OpCls:     chip8.Cls,
	OpRet:     chip8.Ret,
	OpJp:      chip8.Jp,
	OpCall:    chip8.Call,
	OpSeByte:  chip8.Se,
	OpSneByte: chip8.Sne,
	OpSeReg:   chip8.Se,
	OpLdByte:  chip8.Ld,
	OpAddByte: chip8.Add,
	OpLdReg:   chip8.Ld,
	OpOr:      chip8.Or,
	OpAnd:     chip8.And,
	OpXor:     chip8.Xor,
	OpAddReg:  chip8.Add,
	OpSub:     chip8.Sub,
	OpShr:     chip8.Shr,
	OpSubn:    chip8.Subn,
	OpShl:     chip8.Shl,
	OpSneReg:  chip8.Sne,
	OpLdI:     chip8.Ld,
	OpJpV0:    chip8.Jp,
	OpRnd:     chip8.Rnd,
	OpDrw:     chip8.Drw,
	OpSkp:     chip8.Skp,
	OpSknp:    chip8.Sknp,
	OpLdVxDT:  chip8.Ld,
	OpLdVxK:   chip8.Ld,
	OpLdDTVx:  chip8.Ld,
	OpLdSTVx:  chip8.Ld,
	OpAddI:    chip8.Add,
	OpLdF:     chip8.Ld,
	OpLdB:     chip8.Ld,
	OpStore:   chip8.Ld,
	OpLoad:    chip8.Ld,
}

// Mnemonic returns the CHIP-8 instruction definition of the operation.
func (o Op) Mnemonic() *chip8.Instruction {
	return mnemonics[o]
}

// Instruction is a decoded opcode with its operand fields extracted.
type Instruction struct {
	Op     Op
	Opcode uint16

	X   uint8  // register selector in bits 8-11
	Y   uint8  // register selector in bits 4-7
	N   uint8  // nibble in bits 0-3
	NN  uint8  // byte in bits 0-7
	NNN uint16 // address in bits 0-11
}

// Decode turns a 16 bit opcode into an instruction. Opcodes that do not
// encode a known operation return an error wrapping ErrInvalidInstruction.
func Decode(opcode uint16) (Instruction, error) {
	ins := Instruction{
		Opcode: opcode,
		X:      uint8((opcode & 0x0F00) >> 8),
		Y:      uint8((opcode & 0x00F0) >> 4),
		N:      uint8(opcode & 0x000F),
		NN:     uint8(opcode & 0x00FF),
		NNN:    opcode & 0x0FFF,
	}

	ins.Op = decodeOp(opcode)
	if ins.Op == 0 {
		return Instruction{}, fmt.Errorf("%w: $%04X", ErrInvalidInstruction, opcode)
	}
	return ins, nil
}

func decodeOp(opcode uint16) Op {
	switch opcode & 0xF000 {
	case 0x0000:
		switch opcode {
		case 0x00E0:
			return OpCls
		case 0x00EE:
			return OpRet
		}
	case 0x1000:
		return OpJp
	case 0x2000:
		return OpCall
	case 0x3000:
		return OpSeByte
	case 0x4000:
		return OpSneByte
	case 0x5000:
		return OpSeReg
	case 0x6000:
		return OpLdByte
	case 0x7000:
		return OpAddByte
	case 0x8000:
		return decodeArithmetic(opcode)
	case 0x9000:
		return OpSneReg
	case 0xA000:
		return OpLdI
	case 0xB000:
		return OpJpV0
	case 0xC000:
		return OpRnd
	case 0xD000:
		return OpDrw
	case 0xE000:
		switch opcode & 0x00FF {
		case 0x9E:
			return OpSkp
		case 0xA1:
			return OpSknp
		}
	case 0xF000:
		return decodeMisc(opcode)
	}
	return 0
}

func decodeArithmetic(opcode uint16) Op {
	switch opcode & 0x000F {
	case 0x0:
		return OpLdReg
	case 0x1:
		return OpOr
	case 0x2:
		return OpAnd
	case 0x3:
		return OpXor
	case 0x4:
		return OpAddReg
	case 0x5:
		return OpSub
	case 0x6:
		return OpShr
	case 0x7:
		return OpSubn
	case 0xE:
		return OpShl
	}
	return 0
}

func decodeMisc(opcode uint16) Op {
	switch opcode & 0x00FF {
	case 0x07:
		return OpLdVxDT
	case 0x0A:
		return OpLdVxK
	case 0x15:
		return OpLdDTVx
	case 0x18:
		return OpLdSTVx
	case 0x1E:
		return OpAddI
	case 0x29:
		return OpLdF
	case 0x33:
		return OpLdB
	case 0x55:
		return OpStore
	case 0x65:
		return OpLoad
	}
	return 0
}

// String returns the instruction in assembler syntax.
func (i Instruction) String() string {
	mnemonic := i.Op.Mnemonic()
	if mnemonic == nil {
		return fmt.Sprintf("$%04X", i.Opcode)
	}
	if params := i.params(); params != "" {
		return fmt.Sprintf("%s %s", mnemonic.Name, params)
	}
	return mnemonic.Name
}

// params formats the operands of the instruction.
func (i Instruction) params() string {
	switch i.Op {
	case OpCls, OpRet:
		return ""
	case OpJp, OpCall:
		return fmt.Sprintf("$%03X", i.NNN)
	case OpJpV0:
		return fmt.Sprintf("V0, $%03X", i.NNN)
	case OpSeByte, OpSneByte, OpLdByte, OpAddByte, OpRnd:
		return fmt.Sprintf("V%X, $%02X", i.X, i.NN)
	case OpSeReg, OpSneReg, OpLdReg, OpOr, OpAnd, OpXor, OpAddReg, OpSub, OpSubn:
		return fmt.Sprintf("V%X, V%X", i.X, i.Y)
	case OpShr, OpShl, OpSkp, OpSknp:
		return fmt.Sprintf("V%X", i.X)
	case OpLdI:
		return fmt.Sprintf("I, $%03X", i.NNN)
	case OpDrw:
		return fmt.Sprintf("V%X, V%X, $%X", i.X, i.Y, i.N)
	case OpLdVxDT:
		return fmt.Sprintf("V%X, DT", i.X)
	case OpLdVxK:
		return fmt.Sprintf("V%X, K", i.X)
	case OpLdDTVx:
		return fmt.Sprintf("DT, V%X", i.X)
	case OpLdSTVx:
		return fmt.Sprintf("ST, V%X", i.X)
	case OpAddI:
		return fmt.Sprintf("I, V%X", i.X)
	case OpLdF:
		return fmt.Sprintf("F, V%X", i.X)
	case OpLdB:
		return fmt.Sprintf("B, V%X", i.X)
	case OpStore:
		return fmt.Sprintf("[I], V%X", i.X)
	case OpLoad:
		return fmt.Sprintf("V%X, [I]", i.X)
	}
	return ""
}
