// Package buildmode reports whether lexa was built for debugging.
//
// The mode is fixed at compile time by the "debug" build tag:
//
//	go build -tags debug ./...
//
// Release builds (no tag) never attach a diagnostic log sink.
package buildmode

// Mode is the build flavour of the running binary.
type Mode int

const (
	Release Mode = iota
	Debug
)

// String returns the human-readable name of the mode.
func (m Mode) String() string {
	switch m {
	case Release:
		return "release"
	case Debug:
		return "debug"
	default:
		return "unknown"
	}
}

// Current returns the mode selected at build time.
func Current() Mode {
	return current
}
