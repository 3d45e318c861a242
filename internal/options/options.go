// Package options contains the program options.
package options

// Frontend names.
const (
	FrontendSDL      = "sdl"
	FrontendTerminal = "terminal"
)

// Frontends lists all supported frontends, the first one is the default.
var Frontends = []string{FrontendSDL, FrontendTerminal}

// Parameters contains file path options.
type Parameters struct {
	Input string // ROM file to run
}

// Flags contains behavior options.
type Flags struct {
	Frontend string // presentation layer: sdl or terminal
	Debug    bool   // enable debug logging
	Quiet    bool   // only log errors
}

// Program options of the emulator.
type Program struct {
	Parameters
	Flags
}
