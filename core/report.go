package core

import (
	"errors"
	"fmt"
	"strings"

	"adcstream/protocol"
)

// ReportMessageID tags an acquisition report inside a frame.
const ReportMessageID = 0x41

var ErrNotReport = errors.New("frame is not an acquisition report")

// RegisterID names a register captured in a Snapshot.
type RegisterID uint8

const (
	RegRCCAHB1ENR RegisterID = iota
	RegRCCAPB2ENR
	RegADCCCR
	RegADCCR1
	RegADCCR2
	RegADCSMPR1
	RegADCSMPR2
	RegADCSQR1
	RegADCSQR2
	RegADCSQR3
	RegDMACR
	RegDMANDTR
	RegDMAPAR
	RegDMAM0AR
	RegGPIOAMODER
	RegGPIOBMODER
	RegGPIOCMODER
	NumRegisters
)

var registerNames = [NumRegisters]string{
	"RCC_AHB1ENR", "RCC_APB2ENR",
	"ADC_CCR", "ADC1_CR1", "ADC1_CR2", "ADC1_SMPR1", "ADC1_SMPR2",
	"ADC1_SQR1", "ADC1_SQR2", "ADC1_SQR3",
	"DMA2_S0CR", "DMA2_S0NDTR", "DMA2_S0PAR", "DMA2_S0M0AR",
	"GPIOA_MODER", "GPIOB_MODER", "GPIOC_MODER",
}

func (id RegisterID) String() string {
	if id >= NumRegisters {
		return "REG?"
	}
	return registerNames[id]
}

// Snapshot is a copy of every register bring-up writes, plus the step log.
type Snapshot struct {
	Values [NumRegisters]uint32
	Steps  []StepEvent
}

func registerList(p *Peripherals) [NumRegisters]Register {
	return [NumRegisters]Register{
		p.RCC.AHB1ENR, p.RCC.APB2ENR,
		p.ADCCommon.CCR, p.ADC.CR1, p.ADC.CR2, p.ADC.SMPR1, p.ADC.SMPR2,
		p.ADC.SQR1, p.ADC.SQR2, p.ADC.SQR3,
		p.DMA.CR, p.DMA.NDTR, p.DMA.PAR, p.DMA.M0AR,
		p.GPIO[GPIOPortA].MODER, p.GPIO[GPIOPortB].MODER, p.GPIO[GPIOPortC].MODER,
	}
}

// TakeSnapshot reads the registers of p and the current step log.
func TakeSnapshot(p *Peripherals) Snapshot {
	var s Snapshot
	for i, r := range registerList(p) {
		s.Values[i] = r.Get()
	}
	s.Steps = StepLog()
	return s
}

// Encode writes the snapshot as an acquisition report message.
func (s Snapshot) Encode(out protocol.OutputBuffer) {
	protocol.EncodeVLQUint(out, ReportMessageID)
	protocol.EncodeVLQUint(out, uint32(NumRegisters))
	for _, v := range s.Values {
		protocol.EncodeVLQUint(out, v)
	}
	protocol.EncodeVLQUint(out, uint32(len(s.Steps)))
	for _, evt := range s.Steps {
		protocol.EncodeVLQUint(out, uint32(evt.Step))
		protocol.EncodeVLQUint(out, evt.Value)
	}
}

// DecodeSnapshot parses an acquisition report message.
func DecodeSnapshot(data *[]byte) (Snapshot, error) {
	var s Snapshot

	id, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return s, err
	}
	if id != ReportMessageID {
		return s, fmt.Errorf("message id 0x%02x: %w", id, ErrNotReport)
	}

	n, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return s, err
	}
	if n != uint32(NumRegisters) {
		return s, fmt.Errorf("%d registers in report, want %d: %w", n, NumRegisters, ErrNotReport)
	}
	for i := range s.Values {
		if s.Values[i], err = protocol.DecodeVLQUint(data); err != nil {
			return s, err
		}
	}

	steps, err := protocol.DecodeVLQUint(data)
	if err != nil {
		return s, err
	}
	if steps > StepRingSize {
		return s, fmt.Errorf("%d steps in report: %w", steps, ErrNotReport)
	}
	s.Steps = make([]StepEvent, steps)
	for i := range s.Steps {
		step, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return s, err
		}
		value, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return s, err
		}
		s.Steps[i] = StepEvent{Step: Step(step), Value: value}
	}
	return s, nil
}

// OwnedBits returns, per register, the bits that bring-up of seq assigns
// and that the hardware leaves alone afterwards. NDTR counts down, M0AR
// depends on where the buffer was allocated and SWSTART self-clears, so
// they are excluded.
func OwnedBits(seq ConversionSequence) [NumRegisters]uint32 {
	var m [NumRegisters]uint32
	m[RegRCCAHB1ENR] = rccAHB1ENRDMA2EN
	m[RegRCCAPB2ENR] = rccAPB2ENRADC1EN
	m[RegADCCCR] = adcCCRADCPRE.InPlace() | adcCCRTSVREFE.InPlace() | adcCCRVBATE.InPlace()
	m[RegADCCR1] = adcCR1SCAN.InPlace() | adcCR1RES.InPlace()
	m[RegADCCR2] = adcCR2ADON.InPlace() | adcCR2CONT.InPlace() | adcCR2DMA.InPlace() |
		adcCR2DDS.InPlace() | adcCR2EOCS.InPlace() | adcCR2ALIGN.InPlace()
	m[RegADCSQR1] = adcSQR1L.InPlace()
	m[RegDMACR] = dmaCREN.InPlace() | dmaCRDIR.InPlace() | dmaCRCIRC.InPlace() |
		dmaCRPINC.InPlace() | dmaCRMINC.InPlace() | dmaCRPSIZE.InPlace() |
		dmaCRMSIZE.InPlace() | dmaCRCHSEL.InPlace()
	m[RegDMAPAR] = 0xFFFFFFFF

	smpr := func(ch uint8) (RegisterID, Field) {
		if ch < adcSMPPerRegister {
			return RegADCSMPR2, Field{Pos: adcSMPWidth * ch, Width: adcSMPWidth}
		}
		return RegADCSMPR1, Field{Pos: adcSMPWidth * (ch - adcSMPPerRegister), Width: adcSMPWidth}
	}
	for i := 0; i < seq.Len(); i++ {
		ch := seq.At(i).Index
		id, f := smpr(ch)
		m[id] |= f.InPlace()

		sq := RegADCSQR3
		switch {
		case i >= 2*adcSQPerRegister:
			sq = RegADCSQR1
		case i >= adcSQPerRegister:
			sq = RegADCSQR2
		}
		m[sq] |= Field{Pos: uint8(adcSQWidth * (i % adcSQPerRegister)), Width: adcSQWidth}.InPlace()

		if port, pin, ok := channelPin(ch); ok {
			m[RegGPIOAMODER+RegisterID(port)] |= gpioModeField(pin).InPlace()
			m[RegRCCAHB1ENR] |= rccAHB1ENRGPIOAEN << port
		}
	}
	return m
}

// Diff compares the owned bits of s against want and describes every
// register that disagrees.
func (s Snapshot) Diff(want Snapshot, owned [NumRegisters]uint32) []string {
	var out []string
	for i := RegisterID(0); i < NumRegisters; i++ {
		got, exp := s.Values[i]&owned[i], want.Values[i]&owned[i]
		if got != exp {
			out = append(out, i.String()+": got "+hex32(got)+" want "+hex32(exp)+" (mask "+hex32(owned[i])+")")
		}
	}
	return out
}

// Describe renders each register with its bring-up fields decoded.
func (s Snapshot) Describe() []string {
	v := s.Values
	lines := make([]string, 0, int(NumRegisters)+len(s.Steps))
	line := func(id RegisterID, fields ...string) {
		lines = append(lines, id.String()+" "+hex32(v[id])+" "+strings.Join(fields, " "))
	}

	ahb1 := v[RegRCCAHB1ENR]
	line(RegRCCAHB1ENR,
		"GPIOAEN="+flag(ahb1&rccAHB1ENRGPIOAEN != 0),
		"GPIOBEN="+flag(ahb1&rccAHB1ENRGPIOBEN != 0),
		"GPIOCEN="+flag(ahb1&rccAHB1ENRGPIOCEN != 0),
		"DMA2EN="+flag(ahb1&rccAHB1ENRDMA2EN != 0))
	line(RegRCCAPB2ENR, "ADC1EN="+flag(v[RegRCCAPB2ENR]&rccAPB2ENRADC1EN != 0))

	ccr := v[RegADCCCR]
	line(RegADCCCR,
		"ADCPRE=/"+utoa(Prescaler(adcCCRADCPRE.Decode(ccr)).Divider()),
		"TSVREFE="+utoa(adcCCRTSVREFE.Decode(ccr)),
		"VBATE="+utoa(adcCCRVBATE.Decode(ccr)))

	cr1 := v[RegADCCR1]
	line(RegADCCR1,
		"SCAN="+utoa(adcCR1SCAN.Decode(cr1)),
		"RES="+utoa(uint32(Resolution(adcCR1RES.Decode(cr1)).Bits()))+"-bit")

	cr2 := v[RegADCCR2]
	line(RegADCCR2,
		"ADON="+utoa(adcCR2ADON.Decode(cr2)),
		"CONT="+utoa(adcCR2CONT.Decode(cr2)),
		"DMA="+utoa(adcCR2DMA.Decode(cr2)),
		"DDS="+utoa(adcCR2DDS.Decode(cr2)),
		"EOCS="+utoa(adcCR2EOCS.Decode(cr2)),
		"ALIGN="+utoa(adcCR2ALIGN.Decode(cr2)),
		"SWSTART="+utoa(adcCR2SWSTART.Decode(cr2)))

	var smp1, smp2 []string
	for ch := uint8(0); ch <= MaxChannel; ch++ {
		id, pos := RegADCSMPR2, adcSMPWidth*ch
		if ch >= adcSMPPerRegister {
			id, pos = RegADCSMPR1, adcSMPWidth*(ch-adcSMPPerRegister)
		}
		enc := Field{Pos: pos, Width: adcSMPWidth}.Decode(v[id])
		desc := "SMP" + utoa(uint32(ch)) + "=" + utoa(SamplingTime(enc).Cycles())
		if id == RegADCSMPR1 {
			smp1 = append(smp1, desc)
		} else {
			smp2 = append(smp2, desc)
		}
	}
	line(RegADCSMPR1, smp1...)
	line(RegADCSMPR2, smp2...)

	length := int(adcSQR1L.Decode(v[RegADCSQR1])) + 1
	seqFields := [3][]string{}
	for i := 0; i < length; i++ {
		slot := i / adcSQPerRegister
		f := Field{Pos: uint8(adcSQWidth * (i % adcSQPerRegister)), Width: adcSQWidth}
		id := [3]RegisterID{RegADCSQR3, RegADCSQR2, RegADCSQR1}[slot]
		seqFields[slot] = append(seqFields[slot], "SQ"+itoa(i+1)+"="+utoa(f.Decode(v[id])))
	}
	line(RegADCSQR1, append([]string{"L=" + itoa(length-1)}, seqFields[2]...)...)
	line(RegADCSQR2, seqFields[1]...)
	line(RegADCSQR3, seqFields[0]...)

	cr := v[RegDMACR]
	line(RegDMACR,
		"EN="+utoa(dmaCREN.Decode(cr)),
		"DIR="+Direction(dmaCRDIR.Decode(cr)).String(),
		"CIRC="+utoa(dmaCRCIRC.Decode(cr)),
		"PINC="+utoa(dmaCRPINC.Decode(cr)),
		"MINC="+utoa(dmaCRMINC.Decode(cr)),
		"PSIZE="+WordSize(dmaCRPSIZE.Decode(cr)).String(),
		"MSIZE="+WordSize(dmaCRMSIZE.Decode(cr)).String(),
		"CHSEL="+utoa(dmaCRCHSEL.Decode(cr)))
	line(RegDMANDTR, "NDT="+utoa(dmaNDTRSize.Decode(v[RegDMANDTR])))
	line(RegDMAPAR)
	line(RegDMAM0AR)

	for port := GPIOPortA; port < numGPIOPorts; port++ {
		id := RegGPIOAMODER + RegisterID(port)
		var analog []string
		for pin := uint8(0); pin < 16; pin++ {
			if gpioModeField(pin).Decode(v[id]) == gpioModeAnalog {
				analog = append(analog, "P"+port.String()[4:]+utoa(uint32(pin))+"=analog")
			}
		}
		line(id, analog...)
	}

	for _, evt := range s.Steps {
		lines = append(lines, "step "+evt.Step.String()+" "+hex32(evt.Value))
	}
	return lines
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Plan runs BringUp for cfg against simulated registers and returns the
// register image the hardware should end up with.
func Plan(cfg AcquisitionConfig) (Snapshot, error) {
	saved := haltHandler
	defer func() { haltHandler = saved }()
	haltHandler = func(error) {}

	ClearStepLog()
	sim := NewSimPeripherals()
	ctrl := NewAcquisitionController(&sim.Peripherals, &SimTicks{Freq: 168000000}, cfg)
	if err := ctrl.BringUp(SystemClockFunc(func() error { return nil })); err != nil {
		return Snapshot{}, err
	}
	return TakeSnapshot(&sim.Peripherals), nil
}
