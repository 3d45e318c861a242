// Package config handles application configuration and setup
package config

import (
	"github.com/retroenv/retrogolib/log"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// Keypad is the default mapping of the 16 CHIP-8 keys to keyboard keys,
// indexed by CHIP-8 key. It places the hexadecimal keypad
//
//	1 2 3 C
//	4 5 6 D
//	7 8 9 E
//	A 0 B F
//
// onto the left block of a QWERTY keyboard:
//
//	1 2 3 4
//	Q W E R
//	A S D F
//	Z X C V
var Keypad = [16]string{
	"X", "1", "2", "3",
	"Q", "W", "E", "A",
	"S", "D", "Z", "C",
	"4", "R", "F", "V",
}

// KeyIndex returns the CHIP-8 key mapped to the given keyboard key name.
// The comparison ignores the case of the name.
func KeyIndex(name string) (uint8, bool) {
	if len(name) != 1 {
		return 0, false
	}
	c := name[0]
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	for i, key := range Keypad {
		if key[0] == c {
			return uint8(i), true
		}
	}
	return 0, false
}
