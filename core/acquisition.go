package core

import (
	"fmt"
	"unsafe"
)

// SystemClock brings the clock tree up before any peripheral is touched.
type SystemClock interface {
	Configure() error
}

// SystemClockFunc adapts a function to SystemClock.
type SystemClockFunc func() error

func (f SystemClockFunc) Configure() error {
	return f()
}

// AcquisitionConfig is the complete description of the acquisition path.
type AcquisitionConfig struct {
	Sequence ConversionSequence
	ADC      ADCConfig
	Stream   DMAStreamConfig
}

// DefaultAcquisitionConfig scans channels 1 and 4 (PA1, PA4) at the
// shortest sampling time with a 12-bit result, ADC clock = PCLK2/6, into
// DMA2 stream 0 channel 0 in circular half-word mode.
func DefaultAcquisitionConfig() AcquisitionConfig {
	seq, _ := NewConversionSequence(
		ConversionChannel{Index: 1, Sampling: SamplingCycles3},
		ConversionChannel{Index: 4, Sampling: SamplingCycles3},
	)
	return AcquisitionConfig{
		Sequence: seq,
		ADC: ADCConfig{
			Prescaler:  PrescalerDiv6,
			Resolution: Resolution12Bit,
		},
		Stream: DMAStreamConfig{
			Direction:           PeripheralToMemory,
			Circular:            true,
			MemoryIncrement:     true,
			PeripheralIncrement: false,
			PeripheralSize:      HalfWord,
			MemorySize:          HalfWord,
			Channel:             0,
		},
	}
}

// Validate checks that the stream agrees with the converter: one
// peripheral-to-memory item of the sample width per conversion.
func (cfg AcquisitionConfig) Validate() error {
	if cfg.Sequence.Len() == 0 {
		return ErrEmptySequence
	}
	if cfg.Stream.Direction != PeripheralToMemory {
		return fmt.Errorf("%s: %w", cfg.Stream.Direction, ErrInvalidDirection)
	}
	size := SampleWordSize(cfg.ADC.Resolution)
	if cfg.Stream.PeripheralSize != size || cfg.Stream.MemorySize != size {
		return fmt.Errorf("%s/%s for %d-bit samples: %w",
			cfg.Stream.PeripheralSize, cfg.Stream.MemorySize, cfg.ADC.Resolution.Bits(), ErrWordSizeMismatch)
	}
	return nil
}

// SampleBuffer is the DMA destination: one half-word per sequence slot.
// Only the DMA controller writes it; it is never resized or released.
type SampleBuffer struct {
	samples []uint16
}

func newSampleBuffer(n int) *SampleBuffer {
	return &SampleBuffer{samples: make([]uint16, n)}
}

// Len returns the number of samples in the buffer.
func (b *SampleBuffer) Len() int {
	return len(b.samples)
}

// Address returns the bus address of the first sample.
func (b *SampleBuffer) Address() uint32 {
	return uint32(uintptr(unsafe.Pointer(&b.samples[0])))
}

// AcquisitionController runs the one-shot bring-up and owns the sample
// buffer for the lifetime of the firmware.
type AcquisitionController struct {
	periph *Peripherals
	ticks  TickSource
	cfg    AcquisitionConfig
	buf    *SampleBuffer
	adc    *ConvertingADC
}

// NewAcquisitionController allocates the sample buffer for cfg.
func NewAcquisitionController(p *Peripherals, ticks TickSource, cfg AcquisitionConfig) *AcquisitionController {
	n := cfg.Sequence.Len()
	if n == 0 {
		n = 1
	}
	return &AcquisitionController{
		periph: p,
		ticks:  ticks,
		cfg:    cfg,
		buf:    newSampleBuffer(n),
	}
}

// Buffer returns the DMA destination buffer.
func (c *AcquisitionController) Buffer() *SampleBuffer {
	return c.buf
}

// Converter returns the running converter, or nil before BringUp succeeds.
func (c *AcquisitionController) Converter() *ConvertingADC {
	return c.adc
}

// BringUp runs clock setup, clock gating, converter and stream
// configuration, stream arming, converter enable and start, in that order.
// Any failure is fatal: Fatal is invoked once and, on hardware, never
// returns. The error is returned for callers that replaced the halt handler.
func (c *AcquisitionController) BringUp(clock SystemClock) error {
	if err := clock.Configure(); err != nil {
		err = fmt.Errorf("system clock: %w", err)
		Fatal(err)
		return err
	}
	RecordStep(StepClockCheck, 0)

	if err := c.cfg.Validate(); err != nil {
		return c.fail("config", err)
	}

	seq := c.cfg.Sequence
	clocks := PeriphADC1 | PeriphDMA2 | seq.Clocks()
	EnableClocks(c.periph.RCC, clocks)
	RecordStep(StepClockGate, uint32(clocks))

	configured, err := NewADC(c.periph).Configure(seq, c.cfg.ADC)
	if err != nil {
		return c.fail("adc configure", err)
	}
	RecordStep(StepADCConfigure, uint32(seq.Len()))

	stream, err := NewDMAStream(&c.periph.DMA).Configure(c.cfg.Stream)
	if err != nil {
		return c.fail("dma configure", err)
	}
	RecordStep(StepDMAConfigure, uint32(c.cfg.Stream.Channel))

	armed, err := stream.Bind(TransferBinding{
		Source:      configured.DataRegisterAddress(),
		Destination: c.buf.Address(),
		Count:       uint16(seq.Len()),
	})
	if err != nil {
		return c.fail("dma bind", err)
	}
	RecordStep(StepDMABind, uint32(seq.Len()))

	enabled := configured.Enable(c.ticks)
	RecordStep(StepADCEnable, TicksFromUS(c.ticks, ADCStabilizationUS))

	converting, err := enabled.Start(armed)
	if err != nil {
		return c.fail("adc start", err)
	}
	RecordStep(StepADCStart, 0)

	c.adc = converting
	return nil
}

func (c *AcquisitionController) fail(stage string, err error) error {
	err = fmt.Errorf("%s: %w", stage, err)
	Fatal(err)
	return err
}
