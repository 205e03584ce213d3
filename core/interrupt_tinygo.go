//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts and returns the previous state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}
