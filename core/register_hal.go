package core

// Register is the access surface core code needs from a 32-bit
// memory-mapped register. TinyGo's *volatile.Register32 satisfies it on
// hardware; SimRegister satisfies it in host tests and dry runs.
type Register interface {
	Get() uint32
	Set(value uint32)
	SetBits(value uint32)
	ClearBits(value uint32)
	HasBits(value uint32) bool
	ReplaceBits(value uint32, mask uint32, pos uint8)
}

// ADCRegisters is the subset of an ADC instance that bring-up programs.
type ADCRegisters struct {
	SR    Register
	CR1   Register
	CR2   Register
	SMPR1 Register
	SMPR2 Register
	SQR1  Register
	SQR2  Register
	SQR3  Register
	DR    Register

	// DRAddress is the bus address of DR, used as the DMA source.
	DRAddress uint32
}

// ADCCommonRegisters holds the registers shared by all ADC instances.
type ADCCommonRegisters struct {
	CCR Register
}

// DMAStreamRegisters is one stream of a DMA controller.
type DMAStreamRegisters struct {
	CR   Register
	NDTR Register
	PAR  Register
	M0AR Register
}

// RCCRegisters holds the clock enable registers used by ClockGate.
type RCCRegisters struct {
	AHB1ENR Register
	APB2ENR Register
}

// GPIORegisters is a GPIO port. Only the mode register is touched here.
type GPIORegisters struct {
	MODER Register
}

// Peripherals groups every register block the acquisition path touches.
type Peripherals struct {
	RCC       RCCRegisters
	ADC       ADCRegisters
	ADCCommon ADCCommonRegisters
	DMA       DMAStreamRegisters
	GPIO      [numGPIOPorts]GPIORegisters
}
