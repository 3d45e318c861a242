// Package tone generates the beep of the CHIP-8 sound timer.
package tone

import (
	"encoding/binary"
)

// Default tone parameters.
const (
	SampleRate = 44100
	Frequency  = 440
	Volume     = 3000

	// BytesPerSample is the size of a signed 16 bit mono sample.
	BytesPerSample = 2
)

// SquareWave produces a square wave as signed 16 bit little endian mono
// samples. The phase continues across calls to Fill.
type SquareWave struct {
	halfPeriod int
	volume     int16
	sample     uint64
}

// NewSquareWave returns a square wave generator for the given sample rate,
// frequency and amplitude.
func NewSquareWave(sampleRate, frequency int, volume int16) *SquareWave {
	halfPeriod := sampleRate / frequency / 2
	if halfPeriod < 1 {
		halfPeriod = 1
	}
	return &SquareWave{
		halfPeriod: halfPeriod,
		volume:     volume,
	}
}

// Fill writes as many complete samples as fit into buf and returns the
// number of bytes written.
func (w *SquareWave) Fill(buf []byte) int {
	n := len(buf) / BytesPerSample * BytesPerSample
	for i := 0; i < n; i += BytesPerSample {
		binary.LittleEndian.PutUint16(buf[i:], uint16(w.next()))
	}
	return n
}

func (w *SquareWave) next() int16 {
	value := w.volume
	if (w.sample/uint64(w.halfPeriod))%2 == 0 {
		value = -w.volume
	}
	w.sample++
	return value
}
