// Package display provides the monochrome pixel store of the CHIP-8 display.
package display

const (
	// Width is the number of pixel columns.
	Width = 64
	// Height is the number of pixel rows.
	Height = 32

	pixelsPerByte = 8

	// Size is the size of the packed bitmap in bytes.
	Size = Width * Height / pixelsPerByte
)

// Bitmap is a 64x32 monochrome bitmap packed 8 pixels per byte in row major
// order. Pixel x, y is stored in byte (y*64+x)/8 at bit (y*64+x)%8, the
// least significant bit holds the leftmost pixel of a byte.
type Bitmap struct {
	pixels [Size]byte
}

// Clear unsets all pixels.
func (b *Bitmap) Clear() {
	b.pixels = [Size]byte{}
}

// Toggle flips the pixel at x, y and returns whether the pixel became
// unset. Coordinates outside of the bitmap are ignored.
func (b *Bitmap) Toggle(x, y int) bool {
	index, mask, ok := position(x, y)
	if !ok {
		return false
	}
	b.pixels[index] ^= mask
	return b.pixels[index]&mask == 0
}

// Pixel returns whether the pixel at x, y is set.
func (b *Bitmap) Pixel(x, y int) bool {
	index, mask, ok := position(x, y)
	if !ok {
		return false
	}
	return b.pixels[index]&mask != 0
}

func position(x, y int) (int, byte, bool) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return 0, 0, false
	}
	pixel := y*Width + x
	return pixel / pixelsPerByte, 1 << (pixel % pixelsPerByte), true
}
