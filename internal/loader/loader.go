// Package loader handles ROM file loading operations.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/retroenv/chip8emu/internal/machine"
	"github.com/retroenv/retrogolib/arch/system/nes/cartridge"
)

var (
	// ErrEmptyImage is returned for ROM files without any content.
	ErrEmptyImage = errors.New("ROM image is empty")
	// ErrImageTooLarge is returned for ROM files that do not fit into the
	// program memory.
	ErrImageTooLarge = errors.New("ROM image too large")
)

// Loader handles loading ROM files from disk.
type Loader struct{}

// New creates a new ROM loader.
func New() *Loader {
	return &Loader{}
}

// Load reads the raw program image from the given file. CHIP-8 ROMs have
// no header, the file content is loaded verbatim.
func (l *Loader) Load(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return l.Read(file)
}

// Read reads the raw program image from the reader and validates that it
// fits into the program memory of the machine.
func (l *Loader) Read(reader io.Reader) ([]byte, error) {
	// one byte more than allowed to detect oversized images
	counter := &countingReader{reader: io.LimitReader(reader, machine.MaxProgramSize+1)}

	cart, err := cartridge.LoadBuffer(counter)
	if err != nil {
		return nil, fmt.Errorf("reading ROM image: %w", err)
	}
	if counter.read == 0 {
		return nil, ErrEmptyImage
	}
	if counter.read > machine.MaxProgramSize {
		return nil, fmt.Errorf("%w: maximum size is %d bytes", ErrImageTooLarge, machine.MaxProgramSize)
	}

	// the cartridge pads PRG to a full bank
	image := cart.PRG
	if len(image) > counter.read {
		image = image[:counter.read]
	}
	return image, nil
}

// countingReader counts the bytes read through it.
type countingReader struct {
	reader io.Reader
	read   int
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.read += n
	return n, err
}
