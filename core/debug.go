package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Step identifies one stage of acquisition bring-up
type Step uint8

// Bring-up steps, in the order they must happen
const (
	StepClockCheck   Step = 1 // system clock verified
	StepClockGate    Step = 2 // peripheral clocks enabled
	StepADCConfigure Step = 3 // converter programmed
	StepDMAConfigure Step = 4 // stream programmed
	StepDMABind      Step = 5 // stream armed
	StepADCEnable    Step = 6 // converter on and stable
	StepADCStart     Step = 7 // first scan triggered
	StepHalt         Step = 8 // fatal halt entered
)

func (s Step) String() string {
	switch s {
	case StepClockCheck:
		return "CLOCK_CHECK"
	case StepClockGate:
		return "CLOCK_GATE"
	case StepADCConfigure:
		return "ADC_CONFIGURE"
	case StepDMAConfigure:
		return "DMA_CONFIGURE"
	case StepDMABind:
		return "DMA_BIND"
	case StepADCEnable:
		return "ADC_ENABLE"
	case StepADCStart:
		return "ADC_START"
	case StepHalt:
		return "HALT"
	}
	return "UNKNOWN"
}

// StepEvent is one entry of the bring-up log
type StepEvent struct {
	Step  Step
	Value uint32 // step-dependent: clock set, sequence length, count...
}

// StepRingSize bounds the bring-up log; bring-up records fewer steps.
const StepRingSize = 16

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	stepRing     [StepRingSize]StepEvent
	stepRingHead uint8
	stepCount    uint32
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, USB, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordStep appends a bring-up step to the ring and echoes it to the
// debug writer
func RecordStep(step Step, value uint32) {
	idx := stepRingHead
	stepRing[idx] = StepEvent{Step: step, Value: value}
	stepRingHead = (idx + 1) % StepRingSize
	stepCount++
	DebugPrintln("[BRINGUP] " + step.String() + " " + hex32(value))
}

// StepLog returns the recorded steps, oldest first
func StepLog() []StepEvent {
	n := int(stepCount)
	if n > StepRingSize {
		n = StepRingSize
	}
	out := make([]StepEvent, 0, n)
	start := (int(stepRingHead) - n + StepRingSize) % StepRingSize
	for i := 0; i < n; i++ {
		out = append(out, stepRing[(start+i)%StepRingSize])
	}
	return out
}

// ClearStepLog empties the bring-up log
func ClearStepLog() {
	for i := range stepRing {
		stepRing[i] = StepEvent{}
	}
	stepRingHead = 0
	stepCount = 0
}

// DumpStepLog writes the bring-up log to the debug writer
func DumpStepLog() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[BRINGUP] === Step Log ===")
	for _, evt := range StepLog() {
		debugPrintln("[BRINGUP] " + evt.Step.String() + " " + hex32(evt.Value))
	}
	debugPrintln("[BRINGUP] === End ===")
}
