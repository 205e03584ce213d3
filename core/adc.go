package core

import "fmt"

const (
	// MaxSequenceLength is the number of regular conversion slots.
	MaxSequenceLength = 16

	// MaxChannel is the highest ADC1 channel (VBAT).
	MaxChannel = 18

	channelTempSensor = 16
	channelVrefInt    = 17
	channelVBAT       = 18
)

var (
	adcCCRVBATE   = Field{Pos: 22, Width: 1}
	adcCCRTSVREFE = Field{Pos: 23, Width: 1}
)

// SamplingTime selects how many ADC clock cycles a channel is sampled for.
type SamplingTime uint8

const (
	SamplingCycles3 SamplingTime = iota
	SamplingCycles15
	SamplingCycles28
	SamplingCycles56
	SamplingCycles84
	SamplingCycles112
	SamplingCycles144
	SamplingCycles480
)

var samplingCycles = [...]uint32{3, 15, 28, 56, 84, 112, 144, 480}

// Cycles returns the sampling duration in ADC clock cycles.
func (s SamplingTime) Cycles() uint32 {
	if int(s) >= len(samplingCycles) {
		return 0
	}
	return samplingCycles[s]
}

// SamplingTimeFromCycles returns the encoding for an exact cycle count.
func SamplingTimeFromCycles(cycles uint32) (SamplingTime, error) {
	for i, c := range samplingCycles {
		if c == cycles {
			return SamplingTime(i), nil
		}
	}
	return 0, fmt.Errorf("%d cycles: %w", cycles, ErrInvalidSampling)
}

// Prescaler divides PCLK2 down to the ADC clock.
type Prescaler uint8

const (
	PrescalerDiv2 Prescaler = iota
	PrescalerDiv4
	PrescalerDiv6
	PrescalerDiv8
)

// Divider returns the division factor.
func (p Prescaler) Divider() uint32 {
	return 2 * (uint32(p) + 1)
}

// PrescalerFromDivider returns the encoding for a divider of 2, 4, 6 or 8.
func PrescalerFromDivider(div uint32) (Prescaler, error) {
	if div < 2 || div > 8 || div%2 != 0 {
		return 0, fmt.Errorf("divide by %d: %w", div, ErrInvalidPrescaler)
	}
	return Prescaler(div/2 - 1), nil
}

// Resolution is the conversion width.
type Resolution uint8

const (
	Resolution12Bit Resolution = iota
	Resolution10Bit
	Resolution8Bit
	Resolution6Bit
)

// Bits returns the number of significant bits in a sample.
func (r Resolution) Bits() uint8 {
	return 12 - 2*uint8(r)
}

// ResolutionFromBits returns the encoding for 12, 10, 8 or 6 bits.
func ResolutionFromBits(bits uint8) (Resolution, error) {
	switch bits {
	case 12:
		return Resolution12Bit, nil
	case 10:
		return Resolution10Bit, nil
	case 8:
		return Resolution8Bit, nil
	case 6:
		return Resolution6Bit, nil
	}
	return 0, fmt.Errorf("%d bits: %w", bits, ErrInvalidResolution)
}

// ConversionChannel is one analog input and its sampling time.
type ConversionChannel struct {
	Index    uint8
	Sampling SamplingTime
}

// ConversionSequence is the ordered list of channels converted per scan.
// It cannot be modified once built.
type ConversionSequence struct {
	channels []ConversionChannel
}

// NewConversionSequence validates and copies chs into a sequence.
func NewConversionSequence(chs ...ConversionChannel) (ConversionSequence, error) {
	if len(chs) == 0 {
		return ConversionSequence{}, ErrEmptySequence
	}
	if len(chs) > MaxSequenceLength {
		return ConversionSequence{}, fmt.Errorf("%d channels: %w", len(chs), ErrSequenceTooLong)
	}
	for _, ch := range chs {
		if ch.Index > MaxChannel {
			return ConversionSequence{}, fmt.Errorf("channel %d: %w", ch.Index, ErrInvalidChannel)
		}
		if ch.Sampling > SamplingCycles480 {
			return ConversionSequence{}, fmt.Errorf("channel %d: %w", ch.Index, ErrInvalidSampling)
		}
	}
	return ConversionSequence{channels: append([]ConversionChannel(nil), chs...)}, nil
}

// Len returns the number of conversions per scan.
func (s ConversionSequence) Len() int {
	return len(s.channels)
}

// At returns the channel converted at position i (0 is converted first).
func (s ConversionSequence) At(i int) ConversionChannel {
	return s.channels[i]
}

// Clocks returns the GPIO ports that carry the sequence's inputs.
func (s ConversionSequence) Clocks() Peripheral {
	var set Peripheral
	for _, ch := range s.channels {
		if port, _, ok := channelPin(ch.Index); ok {
			set |= gpioPeripheral(port)
		}
	}
	return set
}

// samplingSlot returns the SMPRx register and field holding ch's sampling time.
func samplingSlot(regs *ADCRegisters, ch uint8) (Register, Field) {
	if ch < adcSMPPerRegister {
		return regs.SMPR2, Field{Pos: adcSMPWidth * ch, Width: adcSMPWidth}
	}
	return regs.SMPR1, Field{Pos: adcSMPWidth * (ch - adcSMPPerRegister), Width: adcSMPWidth}
}

// sequenceSlot returns the SQRx register and field for position i (0-based).
func sequenceSlot(regs *ADCRegisters, i int) (Register, Field) {
	reg := regs.SQR3
	switch {
	case i >= 2*adcSQPerRegister:
		reg = regs.SQR1
	case i >= adcSQPerRegister:
		reg = regs.SQR2
	}
	return reg, Field{Pos: uint8(adcSQWidth * (i % adcSQPerRegister)), Width: adcSQWidth}
}

// ADCConfig holds the converter-wide settings.
type ADCConfig struct {
	Prescaler  Prescaler
	Resolution Resolution
}

// ADC is an unconfigured converter. Its register blocks must already be
// clocked (see EnableClocks).
type ADC struct {
	regs   *ADCRegisters
	common *ADCCommonRegisters
	gpio   *[numGPIOPorts]GPIORegisters
}

// NewADC wraps the ADC, ADC common and GPIO blocks of p.
func NewADC(p *Peripherals) *ADC {
	return &ADC{
		regs:   &p.ADC,
		common: &p.ADCCommon,
		gpio:   &p.GPIO,
	}
}

// Configure programs scan mode, resolution, continuous DMA operation, the
// sampling time and position of every channel in seq, and switches the
// channel pins to analog mode. Every field is assigned in full, so calling
// Configure again with the same arguments leaves the same register image.
func (a *ADC) Configure(seq ConversionSequence, cfg ADCConfig) (*ConfiguredADC, error) {
	if seq.Len() == 0 {
		return nil, ErrEmptySequence
	}
	if cfg.Prescaler > PrescalerDiv8 {
		return nil, ErrInvalidPrescaler
	}
	if cfg.Resolution > Resolution6Bit {
		return nil, ErrInvalidResolution
	}

	r := a.regs

	adcCCRADCPRE.Assign(a.common.CCR, uint32(cfg.Prescaler))

	adcCR1SCAN.Flag(r.CR1, true)
	adcCR1RES.Assign(r.CR1, uint32(cfg.Resolution))

	// CONT, EOCS, DMA and DDS together keep requests flowing across scans.
	// Without DDS the converter stops issuing requests once NDTR reaches 0.
	adcCR2CONT.Flag(r.CR2, true)
	adcCR2EOCS.Flag(r.CR2, true)
	adcCR2ALIGN.Flag(r.CR2, false)
	adcCR2DMA.Flag(r.CR2, true)
	adcCR2DDS.Flag(r.CR2, true)

	internal := false
	vbat := false
	for i := 0; i < seq.Len(); i++ {
		ch := seq.At(i)
		reg, f := samplingSlot(r, ch.Index)
		f.Assign(reg, uint32(ch.Sampling))

		switch ch.Index {
		case channelTempSensor, channelVrefInt:
			internal = true
		case channelVBAT:
			vbat = true
		}
	}
	if internal {
		adcCCRTSVREFE.Flag(a.common.CCR, true)
	}
	if vbat {
		adcCCRVBATE.Flag(a.common.CCR, true)
	}

	adcSQR1L.Assign(r.SQR1, uint32(seq.Len()-1))
	for i := 0; i < seq.Len(); i++ {
		reg, f := sequenceSlot(r, i)
		f.Assign(reg, uint32(seq.At(i).Index))
	}

	for i := 0; i < seq.Len(); i++ {
		port, pin, ok := channelPin(seq.At(i).Index)
		if !ok {
			continue
		}
		gpioModeField(pin).Assign(a.gpio[port].MODER, gpioModeAnalog)
	}

	return &ConfiguredADC{adc: a, seq: seq, cfg: cfg}, nil
}

// ConfiguredADC is a programmed but powered-down converter.
type ConfiguredADC struct {
	adc *ADC
	seq ConversionSequence
	cfg ADCConfig
}

// Sequence returns the programmed conversion sequence.
func (c *ConfiguredADC) Sequence() ConversionSequence {
	return c.seq
}

// SampleWordSize returns the DMA word size matching the converter output.
func (c *ConfiguredADC) SampleWordSize() WordSize {
	return SampleWordSize(c.cfg.Resolution)
}

// DataRegisterAddress is the DMA source address for converted samples.
func (c *ConfiguredADC) DataRegisterAddress() uint32 {
	return c.adc.regs.DRAddress
}

// Enable powers the converter on and waits out its stabilization time
// on ticks before returning.
func (c *ConfiguredADC) Enable(ticks TickSource) *EnabledADC {
	adcCR2ADON.Flag(c.adc.regs.CR2, true)
	DelayUS(ticks, ADCStabilizationUS)
	return &EnabledADC{adc: c}
}

// EnabledADC is powered and stable, waiting for a start trigger.
type EnabledADC struct {
	adc *ConfiguredADC
}

// Start clears stale status flags and triggers the first regular scan.
// The DMA stream must already be armed, which is why it is passed in: it
// is checked to carry one half-word transfer per sequence slot.
func (e *EnabledADC) Start(armed *ArmedStream) (*ConvertingADC, error) {
	seq := e.adc.seq
	if int(armed.Binding().Count) != seq.Len() {
		return nil, fmt.Errorf("%d transfers for %d conversions: %w",
			armed.Binding().Count, seq.Len(), ErrCountMismatch)
	}
	size := e.adc.SampleWordSize()
	cfg := armed.Config()
	if cfg.PeripheralSize != size || cfg.MemorySize != size {
		return nil, ErrWordSizeMismatch
	}

	r := e.adc.adc.regs
	r.SR.Set(0)
	adcCR2SWSTART.Flag(r.CR2, true)
	return &ConvertingADC{adc: e.adc, stream: armed}, nil
}

// ConvertingADC is scanning continuously and feeding its DMA stream.
// There is no way back from this state.
type ConvertingADC struct {
	adc    *ConfiguredADC
	stream *ArmedStream
}

// Sequence returns the conversion sequence being scanned.
func (c *ConvertingADC) Sequence() ConversionSequence {
	return c.adc.seq
}

// Stream returns the DMA stream the converter feeds.
func (c *ConvertingADC) Stream() *ArmedStream {
	return c.stream
}
