//go:build !tinygo

package core

// State is a placeholder for interrupt state on regular Go
type State uintptr

// interruptsMasked records disableInterrupts calls so host tests can see
// that a halt masked interrupts
var interruptsMasked bool

// disableInterrupts only records the request on regular Go
func disableInterrupts() State {
	interruptsMasked = true
	return 0
}
