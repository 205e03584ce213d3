package core

// SimRegister is an in-memory Register. Every mutating call counts as one
// bus write so tests can assert that nothing was touched.
type SimRegister struct {
	value  uint32
	writes int
}

// NewSimRegister returns a register holding the given reset value.
func NewSimRegister(reset uint32) *SimRegister {
	return &SimRegister{value: reset}
}

func (r *SimRegister) Get() uint32 {
	return r.value
}

func (r *SimRegister) Set(value uint32) {
	r.value = value
	r.writes++
}

func (r *SimRegister) SetBits(value uint32) {
	r.value |= value
	r.writes++
}

func (r *SimRegister) ClearBits(value uint32) {
	r.value &^= value
	r.writes++
}

func (r *SimRegister) HasBits(value uint32) bool {
	return r.value&value > 0
}

// ReplaceBits matches volatile.Register32: mask is unshifted, pos shifts
// both mask and value into place.
func (r *SimRegister) ReplaceBits(value uint32, mask uint32, pos uint8) {
	r.value = r.value&^(mask<<pos) | (value&mask)<<pos
	r.writes++
}

// Writes returns the number of bus writes issued to the register.
func (r *SimRegister) Writes() int {
	return r.writes
}

// SimPeripherals is a fully simulated register set with STM32F4 reset
// values and bus addresses.
type SimPeripherals struct {
	Peripherals

	regs []*SimRegister
}

// NewSimPeripherals builds a simulated register set.
func NewSimPeripherals() *SimPeripherals {
	s := &SimPeripherals{}
	reg := func(reset uint32) *SimRegister {
		r := NewSimRegister(reset)
		s.regs = append(s.regs, r)
		return r
	}

	s.RCC = RCCRegisters{
		AHB1ENR: reg(0x00100000),
		APB2ENR: reg(0),
	}
	s.ADC = ADCRegisters{
		SR:        reg(0),
		CR1:       reg(0),
		CR2:       reg(0),
		SMPR1:     reg(0),
		SMPR2:     reg(0),
		SQR1:      reg(0),
		SQR2:      reg(0),
		SQR3:      reg(0),
		DR:        reg(0),
		DRAddress: ADC1DataRegisterAddress,
	}
	s.ADCCommon = ADCCommonRegisters{CCR: reg(0)}
	s.DMA = DMAStreamRegisters{
		CR:   reg(0),
		NDTR: reg(0),
		PAR:  reg(0),
		M0AR: reg(0),
	}
	// GPIOA and GPIOB come out of reset with the debug pins in alternate
	// function mode.
	s.GPIO[GPIOPortA] = GPIORegisters{MODER: reg(0xA8000000)}
	s.GPIO[GPIOPortB] = GPIORegisters{MODER: reg(0x00000280)}
	s.GPIO[GPIOPortC] = GPIORegisters{MODER: reg(0)}
	return s
}

// TotalWrites sums the bus writes across every simulated register.
func (s *SimPeripherals) TotalWrites() int {
	n := 0
	for _, r := range s.regs {
		n += r.writes
	}
	return n
}
