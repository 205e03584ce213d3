package core

import (
	"errors"
	"testing"
)

// captureHalt replaces the halt loop for one test and counts invocations.
func captureHalt(t *testing.T) *[]error {
	t.Helper()
	var reasons []error
	saved := haltHandler
	SetHaltHandler(func(reason error) { reasons = append(reasons, reason) })
	interruptsMasked = false
	ClearStepLog()
	t.Cleanup(func() { SetHaltHandler(saved) })
	return &reasons
}

func TestBringUpDefault(t *testing.T) {
	halts := captureHalt(t)
	sim := NewSimPeripherals()
	ctrl := NewAcquisitionController(&sim.Peripherals, &SimTicks{Freq: 168000000}, DefaultAcquisitionConfig())

	if err := ctrl.BringUp(SystemClockFunc(func() error { return nil })); err != nil {
		t.Fatalf("BringUp: %v", err)
	}
	if len(*halts) != 0 {
		t.Fatalf("unexpected halt: %v", *halts)
	}

	buf := ctrl.Buffer()
	if buf.Len() != 2 {
		t.Errorf("Expected 2-sample buffer, got %d", buf.Len())
	}
	if sim.DMA.NDTR.Get() != uint32(buf.Len()) {
		t.Errorf("NDTR=%d does not match sequence length %d", sim.DMA.NDTR.Get(), buf.Len())
	}
	if sim.DMA.PAR.Get() != ADC1DataRegisterAddress {
		t.Errorf("PAR=0x%08X, want ADC1 DR", sim.DMA.PAR.Get())
	}
	if sim.DMA.M0AR.Get() != buf.Address() {
		t.Errorf("M0AR=0x%08X, want buffer at 0x%08X", sim.DMA.M0AR.Get(), buf.Address())
	}
	cr := sim.DMA.CR.Get()
	if dmaCRPSIZE.Decode(cr) != uint32(HalfWord) || dmaCRMSIZE.Decode(cr) != uint32(HalfWord) {
		t.Errorf("12-bit samples must move as half-words, CR=0x%08X", cr)
	}
	cr2 := sim.ADC.CR2.Get()
	if adcCR2ADON.Decode(cr2) != 1 || adcCR2SWSTART.Decode(cr2) != 1 {
		t.Errorf("converter not running, CR2=0x%08X", cr2)
	}
	ahb1 := sim.RCC.AHB1ENR.Get()
	if ahb1&rccAHB1ENRGPIOAEN == 0 || ahb1&rccAHB1ENRDMA2EN == 0 || sim.RCC.APB2ENR.Get()&rccAPB2ENRADC1EN == 0 {
		t.Errorf("clocks not gated on: AHB1ENR=0x%08X APB2ENR=0x%08X", ahb1, sim.RCC.APB2ENR.Get())
	}
	if ctrl.Converter() == nil {
		t.Error("Expected a running converter")
	}

	want := []Step{StepClockCheck, StepClockGate, StepADCConfigure, StepDMAConfigure, StepDMABind, StepADCEnable, StepADCStart}
	log := StepLog()
	if len(log) != len(want) {
		t.Fatalf("Expected %d steps, got %v", len(want), log)
	}
	for i, evt := range log {
		if evt.Step != want[i] {
			t.Errorf("step %d: got %s, want %s", i, evt.Step, want[i])
		}
	}
	if log[4].Value != 2 {
		t.Errorf("DMA_BIND recorded count %d, want 2", log[4].Value)
	}
}

func TestBringUpClockFailureHalts(t *testing.T) {
	halts := captureHalt(t)
	sim := NewSimPeripherals()
	ctrl := NewAcquisitionController(&sim.Peripherals, &SimTicks{Freq: 168000000}, DefaultAcquisitionConfig())

	clockErr := errors.New("HSE not ready")
	err := ctrl.BringUp(SystemClockFunc(func() error { return clockErr }))
	if !errors.Is(err, clockErr) {
		t.Errorf("Expected clock error, got %v", err)
	}
	if len(*halts) != 1 {
		t.Fatalf("Expected exactly one halt, got %d", len(*halts))
	}
	if !errors.Is((*halts)[0], clockErr) {
		t.Errorf("halt reason %v does not wrap the clock error", (*halts)[0])
	}
	if !interruptsMasked {
		t.Error("interrupts not disabled before halting")
	}
	if sim.TotalWrites() != 0 {
		t.Errorf("Expected no register writes after clock failure, got %d", sim.TotalWrites())
	}
	if ctrl.Converter() != nil {
		t.Error("converter reported running after halt")
	}
	log := StepLog()
	if len(log) != 1 || log[0].Step != StepHalt {
		t.Errorf("Expected only a HALT step, got %v", log)
	}
}

func TestBringUpRejectsMismatchedStreamBeforeWriting(t *testing.T) {
	halts := captureHalt(t)
	sim := NewSimPeripherals()
	cfg := DefaultAcquisitionConfig()
	cfg.Stream.MemorySize = Word

	err := NewAcquisitionController(&sim.Peripherals, &SimTicks{Freq: 168000000}, cfg).
		BringUp(SystemClockFunc(func() error { return nil }))
	if !errors.Is(err, ErrWordSizeMismatch) {
		t.Errorf("Expected ErrWordSizeMismatch, got %v", err)
	}
	if len(*halts) != 1 {
		t.Errorf("Expected one halt, got %d", len(*halts))
	}
	if sim.TotalWrites() != 0 {
		t.Errorf("Expected no register writes, got %d", sim.TotalWrites())
	}
}

func TestBringUpRejectsActiveStream(t *testing.T) {
	halts := captureHalt(t)
	sim := NewSimPeripherals()
	sim.DMA.CR.Set(dmaCREN.InPlace())

	err := NewAcquisitionController(&sim.Peripherals, &SimTicks{Freq: 168000000}, DefaultAcquisitionConfig()).
		BringUp(SystemClockFunc(func() error { return nil }))
	if !errors.Is(err, ErrStreamActive) {
		t.Errorf("Expected ErrStreamActive, got %v", err)
	}
	if len(*halts) != 1 {
		t.Errorf("Expected one halt, got %d", len(*halts))
	}
	if adcCR2ADON.Decode(sim.ADC.CR2.Get()) != 0 {
		t.Error("converter powered on after a failed stream setup")
	}
}

func TestValidateDirection(t *testing.T) {
	cfg := DefaultAcquisitionConfig()
	cfg.Stream.Direction = MemoryToPeripheral
	if err := cfg.Validate(); !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("Expected ErrInvalidDirection, got %v", err)
	}
	if err := (AcquisitionConfig{}).Validate(); err != ErrEmptySequence {
		t.Errorf("Expected ErrEmptySequence, got %v", err)
	}
}
