// Package window implements the SDL2 frontend with a scalable window, keyboard
// input and a square wave tone.
package window

import (
	"fmt"
	"runtime"

	"github.com/retroenv/chip8emu/internal/config"
	"github.com/retroenv/chip8emu/internal/display"
	"github.com/retroenv/chip8emu/internal/frontend"
	"github.com/retroenv/chip8emu/internal/tone"
	"github.com/retroenv/retrogolib/log"
	"github.com/veandco/go-sdl2/sdl"
)

func init() {
	// SDL has to be called from the main thread.
	runtime.LockOSThread()
}

const (
	windowWidth  = 320
	windowHeight = 240

	audioSamples = 512
	// audioQueueSize is the number of bytes kept queued while the tone plays.
	audioQueueSize = 4 * audioSamples * tone.BytesPerSample
)

// Compile-time check to ensure Frontend implements frontend.Frontend.
var _ frontend.Frontend = (*Frontend)(nil)

// Frontend presents the display in an SDL window.
type Frontend struct {
	logger *log.Logger

	window   *sdl.Window
	renderer *sdl.Renderer

	audio        sdl.AudioDeviceID
	audioBuffer  []byte
	audioEnabled bool
	wave         *tone.SquareWave

	keymap map[sdl.Keycode]uint8
	keys   [len(config.Keypad)]bool

	bitmap display.Bitmap
	rects  []sdl.Rect
	dirty  bool
}

// New initializes SDL and opens the window and audio device. A missing
// audio device is not fatal, the emulator runs muted in that case.
func New(logger *log.Logger, title string) (*Frontend, error) {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		return nil, fmt.Errorf("initializing SDL: %w", err)
	}

	f := &Frontend{
		logger: logger,
		keymap: keymap(),
		rects:  make([]sdl.Rect, 0, display.Width*display.Height),
		dirty:  true,
	}

	if err := f.openWindow(title); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := f.openAudio(); err != nil {
		logger.Warn("Audio not available, running muted", log.Err(err))
	}
	return f, nil
}

func (f *Frontend) openWindow(title string) error {
	window, err := sdl.CreateWindow(title, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		windowWidth, windowHeight, sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	f.window = window
	window.SetMinimumSize(display.Width, display.Height)

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}
	f.renderer = renderer

	// the renderer scales the 64x32 display to the window size
	if err := renderer.SetLogicalSize(display.Width, display.Height); err != nil {
		return fmt.Errorf("setting renderer size: %w", err)
	}
	return nil
}

func (f *Frontend) openAudio() error {
	spec := sdl.AudioSpec{
		Freq:     tone.SampleRate,
		Format:   sdl.AUDIO_S16LSB,
		Channels: 1,
		Samples:  audioSamples,
	}
	device, err := sdl.OpenAudioDevice("", false, &spec, nil, 0)
	if err != nil {
		return fmt.Errorf("opening audio device: %w", err)
	}

	f.audio = device
	f.audioBuffer = make([]byte, audioSamples*tone.BytesPerSample)
	f.wave = tone.NewSquareWave(tone.SampleRate, tone.Frequency, tone.Volume)
	return nil
}

// keymap returns the SDL key codes of the default keypad layout.
func keymap() map[sdl.Keycode]uint8 {
	keys := make(map[sdl.Keycode]uint8, len(config.Keypad))
	for i, name := range config.Keypad {
		keys[sdl.GetKeyFromName(name)] = uint8(i)
	}
	return keys
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

// IsKeyPressed returns whether the keyboard key mapped to the CHIP-8 key is
// held down.
func (f *Frontend) IsKeyPressed(key uint8) bool {
	if int(key) >= len(f.keys) {
		return false
	}
	return f.keys[key]
}

// SetAudioEnabled starts or stops the tone.
func (f *Frontend) SetAudioEnabled(enabled bool) {
	if f.audio == 0 || enabled == f.audioEnabled {
		return
	}
	f.audioEnabled = enabled

	if enabled {
		f.queueAudio()
	} else {
		sdl.ClearQueuedAudio(f.audio)
	}
	sdl.PauseAudioDevice(f.audio, !enabled)
}

// Poll processes all pending SDL events, keeps the audio queue filled and
// renders the display if it changed.
func (f *Frontend) Poll() bool {
	quit := f.handleEvents()

	if f.audioEnabled {
		f.queueAudio()
	}
	if f.dirty {
		if err := f.render(); err != nil {
			f.logger.Error("Rendering failed", log.Err(err))
		}
		f.dirty = false
	}
	return quit
}

func (f *Frontend) handleEvents() bool {
	var quit bool
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			quit = true

		case *sdl.KeyboardEvent:
			if e.Keysym.Sym == sdl.K_ESCAPE {
				quit = true
				continue
			}
			if key, ok := f.keymap[e.Keysym.Sym]; ok {
				f.keys[key] = e.State == sdl.PRESSED
			}

		case *sdl.WindowEvent:
			if e.Event == sdl.WINDOWEVENT_EXPOSED || e.Event == sdl.WINDOWEVENT_SIZE_CHANGED {
				f.dirty = true
			}
		}
	}
	return quit
}

// queueAudio tops up the queued samples of the audio device.
func (f *Frontend) queueAudio() {
	for sdl.GetQueuedAudioSize(f.audio) < audioQueueSize {
		n := f.wave.Fill(f.audioBuffer)
		if err := sdl.QueueAudio(f.audio, f.audioBuffer[:n]); err != nil {
			f.logger.Error("Queueing audio failed", log.Err(err))
			return
		}
	}
}

func (f *Frontend) render() error {
	if err := f.renderer.SetDrawColor(0, 0, 0, 255); err != nil {
		return fmt.Errorf("setting draw color: %w", err)
	}
	if err := f.renderer.Clear(); err != nil {
		return fmt.Errorf("clearing renderer: %w", err)
	}

	f.rects = f.rects[:0]
	for y := 0; y < display.Height; y++ {
		for x := 0; x < display.Width; x++ {
			if f.bitmap.Pixel(x, y) {
				f.rects = append(f.rects, sdl.Rect{X: int32(x), Y: int32(y), W: 1, H: 1})
			}
		}
	}

	if len(f.rects) > 0 {
		if err := f.renderer.SetDrawColor(255, 255, 255, 255); err != nil {
			return fmt.Errorf("setting draw color: %w", err)
		}
		if err := f.renderer.FillRects(f.rects); err != nil {
			return fmt.Errorf("drawing pixels: %w", err)
		}
	}

	f.renderer.Present()
	return nil
}

// Close releases the audio device, the window and SDL.
func (f *Frontend) Close() error {
	if f.audio != 0 {
		sdl.CloseAudioDevice(f.audio)
		f.audio = 0
	}

	var err error
	if f.renderer != nil {
		if destroyErr := f.renderer.Destroy(); destroyErr != nil {
			err = fmt.Errorf("destroying renderer: %w", destroyErr)
		}
		f.renderer = nil
	}
	if f.window != nil {
		if destroyErr := f.window.Destroy(); destroyErr != nil && err == nil {
			err = fmt.Errorf("destroying window: %w", destroyErr)
		}
		f.window = nil
	}

	sdl.Quit()
	return err
}
