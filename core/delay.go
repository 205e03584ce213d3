package core

// ADCStabilizationUS is the time the converter needs after ADON before
// its results are valid. The datasheet minimum is 3us; 10us leaves margin.
const ADCStabilizationUS = 10

// TickSource is a free-running hardware counter with a known frequency.
type TickSource interface {
	// Ticks returns the current counter value. It wraps at 32 bits.
	Ticks() uint32

	// Frequency returns the counter rate in Hz.
	Frequency() uint32
}

// TicksFromUS converts microseconds to ticks of src, rounding up so the
// resulting wait is never shorter than requested.
func TicksFromUS(src TickSource, us uint32) uint32 {
	return uint32((uint64(us)*uint64(src.Frequency()) + 999999) / 1000000)
}

// DelayUS spins until at least us microseconds have elapsed on src. It
// does not yield; interrupts are left as they are.
func DelayUS(src TickSource, us uint32) {
	need := TicksFromUS(src, us)
	start := src.Ticks()
	for src.Ticks()-start < need {
	}
}

// SimTicks is a TickSource for host runs. Every read advances the counter
// by Step (1 when unset), standing in for the time a polling loop iteration takes.
type SimTicks struct {
	Now  uint32
	Step uint32
	Freq uint32
}

func (s *SimTicks) Ticks() uint32 {
	if s.Step == 0 {
		s.Now++
		return s.Now
	}
	s.Now += s.Step
	return s.Now
}

func (s *SimTicks) Frequency() uint32 {
	return s.Freq
}
