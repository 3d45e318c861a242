// Package terminal implements a frontend that renders the display into a
// raw mode terminal using ANSI escape sequences.
package terminal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/retroenv/chip8emu/internal/config"
	"github.com/retroenv/chip8emu/internal/display"
	"github.com/retroenv/chip8emu/internal/frontend"
	"github.com/retroenv/retrogolib/log"
)

// KeyHold is how long a key counts as pressed after a keystroke. Terminals
// only report key presses, a held key repeats at the keyboard repeat rate.
const KeyHold = 150 * time.Millisecond

const (
	escape = 0x1b
	bell   = "\a"

	clearScreen = "\x1b[2J"
	cursorHome  = "\x1b[H"
	hideCursor  = "\x1b[?25l"
	showCursor  = "\x1b[?25h"
	resetStyle  = "\x1b[0m"
)

// Compile-time check to ensure Frontend implements frontend.Frontend.
var _ frontend.Frontend = (*Frontend)(nil)

// Frontend draws the display with half block characters, two pixel rows
// per terminal line.
type Frontend struct {
	logger *log.Logger
	read   func([]byte) (int, error)
	out    io.Writer
	now    func() time.Time
	raw    *rawMode

	bitmap  display.Bitmap
	pressed [len(config.Keypad)]time.Time
	input   []byte
	frame   bytes.Buffer

	audioEnabled bool
	ringBell     bool
	dirty        bool
}

// New switches the terminal of stdin into raw mode and returns a frontend
// writing to stdout.
func New(logger *log.Logger) (*Frontend, error) {
	fd := int(os.Stdin.Fd())
	raw, err := enterRawMode(fd)
	if err != nil {
		return nil, fmt.Errorf("entering raw terminal mode: %w", err)
	}

	f := newFrontend(logger, func(buf []byte) (int, error) { return readInput(fd, buf) }, os.Stdout)
	f.raw = raw

	if _, err := io.WriteString(f.out, hideCursor+clearScreen); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("preparing terminal: %w", err)
	}
	return f, nil
}

func newFrontend(logger *log.Logger, read func([]byte) (int, error), out io.Writer) *Frontend {
	return &Frontend{
		logger: logger,
		read:   read,
		out:    out,
		now:    time.Now,
		input:  make([]byte, 64),
		dirty:  true,
	}
}

// ClearDisplay blanks all pixels.
func (f *Frontend) ClearDisplay() {
	f.bitmap.Clear()
	f.dirty = true
}

// TogglePixel flips a pixel and returns whether it became unset.
func (f *Frontend) TogglePixel(x, y uint8) bool {
	f.dirty = true
	return f.bitmap.Toggle(int(x), int(y))
}

// IsKeyPressed returns whether the key mapped to the CHIP-8 key was typed
// within the last KeyHold interval.
func (f *Frontend) IsKeyPressed(key uint8) bool {
	if int(key) >= len(f.pressed) {
		return false
	}
	last := f.pressed[key]
	return !last.IsZero() && f.now().Sub(last) < KeyHold
}

// SetAudioEnabled rings the terminal bell when the tone starts.
func (f *Frontend) SetAudioEnabled(enabled bool) {
	if enabled && !f.audioEnabled {
		f.ringBell = true
	}
	f.audioEnabled = enabled
}

// Poll reads pending keystrokes and redraws the terminal if the display
// changed. Escape requests to quit.
func (f *Frontend) Poll() bool {
	quit, err := f.readKeys()
	if err != nil {
		f.logger.Error("Reading terminal input failed", log.Err(err))
	}

	if f.dirty || f.ringBell {
		if err := f.render(); err != nil {
			f.logger.Error("Rendering failed", log.Err(err))
		}
	}
	return quit
}

// readKeys processes all available input bytes.
func (f *Frontend) readKeys() (bool, error) {
	for {
		n, err := f.read(f.input)
		if err != nil || n == 0 {
			if err == io.EOF {
				err = nil
			}
			return false, err
		}
		if f.handleInput(f.input[:n]) {
			return true, nil
		}
		if n < len(f.input) {
			return false, nil
		}
	}
}

// handleInput marks the typed keys as pressed. A lone escape byte requests
// to quit, escape sequences like cursor keys are skipped.
func (f *Frontend) handleInput(data []byte) bool {
	now := f.now()
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b == escape {
			if i == len(data)-1 {
				return true
			}
			i = escapeSequenceEnd(data, i)
			continue
		}
		if key, ok := config.KeyIndex(string(b)); ok {
			f.pressed[key] = now
		}
	}
	return false
}

// escapeSequenceEnd returns the index of the last byte of the escape
// sequence starting at start. CSI and SS3 sequences end with a final byte
// in the range 0x40-0x7E, any other byte following the escape is an
// Alt modified key.
func escapeSequenceEnd(data []byte, start int) int {
	next := start + 1
	if data[next] != '[' && data[next] != 'O' {
		return next
	}
	for i := next + 1; i < len(data); i++ {
		if data[i] >= 0x40 && data[i] <= 0x7e {
			return i
		}
	}
	return len(data) - 1
}

func (f *Frontend) render() error {
	f.frame.Reset()
	if f.dirty {
		f.frame.WriteString(cursorHome)
		writeFrame(&f.frame, &f.bitmap)
		f.dirty = false
	}
	if f.ringBell {
		f.frame.WriteString(bell)
		f.ringBell = false
	}

	_, err := f.out.Write(f.frame.Bytes())
	return err
}

// writeFrame draws the bitmap with one terminal line for every two pixel
// rows.
func writeFrame(buf *bytes.Buffer, bitmap *display.Bitmap) {
	for y := 0; y < display.Height; y += 2 {
		for x := 0; x < display.Width; x++ {
			top := bitmap.Pixel(x, y)
			bottom := bitmap.Pixel(x, y+1)
			switch {
			case top && bottom:
				buf.WriteString("█")
			case top:
				buf.WriteString("▀")
			case bottom:
				buf.WriteString("▄")
			default:
				buf.WriteByte(' ')
			}
		}
		buf.WriteString("\r\n")
	}
}

// Close restores the terminal state.
func (f *Frontend) Close() error {
	_, writeErr := io.WriteString(f.out, resetStyle+showCursor+"\r\n")

	if f.raw != nil {
		if err := f.raw.restoreState(); err != nil {
			return fmt.Errorf("restoring terminal mode: %w", err)
		}
		f.raw = nil
	}
	return writeErr
}
