package core

// HaltHandler is run by Fatal after interrupts are masked. The default
// spins forever; it must not return on hardware.
type HaltHandler func(reason error)

var haltHandler HaltHandler = func(error) {
	for {
	}
}

// SetHaltHandler replaces the halt loop (used by host tests).
func SetHaltHandler(h HaltHandler) {
	haltHandler = h
}

// Fatal stops the firmware: interrupts are masked, the reason is logged
// and the halt handler runs. Nothing is retried.
func Fatal(reason error) {
	disableInterrupts()
	RecordStep(StepHalt, 0)
	if reason != nil {
		DebugPrintln("fatal: " + reason.Error())
	}
	haltHandler(reason)
}
