package core

// STM32F4 register layout (RM0090) for the blocks used by acquisition.

// Bus addresses.
const (
	ADC1Base                = 0x40012000
	ADC1DataRegisterAddress = ADC1Base + 0x4C
	DMA2Stream0Base         = 0x40026410
)

// RCC enable bits.
const (
	rccAHB1ENRGPIOAEN = 1 << 0
	rccAHB1ENRGPIOBEN = 1 << 1
	rccAHB1ENRGPIOCEN = 1 << 2
	rccAHB1ENRDMA2EN  = 1 << 22
	rccAPB2ENRADC1EN  = 1 << 8
)

// ADC fields.
var (
	adcCCRADCPRE = Field{Pos: 16, Width: 2}

	adcCR1SCAN = Field{Pos: 8, Width: 1}
	adcCR1RES  = Field{Pos: 24, Width: 2}

	adcCR2ADON    = Field{Pos: 0, Width: 1}
	adcCR2CONT    = Field{Pos: 1, Width: 1}
	adcCR2DMA     = Field{Pos: 8, Width: 1}
	adcCR2DDS     = Field{Pos: 9, Width: 1}
	adcCR2EOCS    = Field{Pos: 10, Width: 1}
	adcCR2ALIGN   = Field{Pos: 11, Width: 1}
	adcCR2SWSTART = Field{Pos: 30, Width: 1}

	adcSQR1L = Field{Pos: 20, Width: 4}
)

const (
	adcSMPWidth       = 3
	adcSMPPerRegister = 10
	adcSQWidth        = 5
	adcSQPerRegister  = 6
)

// DMA stream CR fields.
var (
	dmaCREN     = Field{Pos: 0, Width: 1}
	dmaCRDIR    = Field{Pos: 6, Width: 2}
	dmaCRCIRC   = Field{Pos: 8, Width: 1}
	dmaCRPINC   = Field{Pos: 9, Width: 1}
	dmaCRMINC   = Field{Pos: 10, Width: 1}
	dmaCRPSIZE  = Field{Pos: 11, Width: 2}
	dmaCRMSIZE  = Field{Pos: 13, Width: 2}
	dmaCRCHSEL  = Field{Pos: 25, Width: 3}
	dmaNDTRSize = Field{Pos: 0, Width: 16}
)

const gpioModeAnalog = 0b11

// GPIOPort identifies a GPIO port that carries ADC inputs.
type GPIOPort uint8

const (
	GPIOPortA GPIOPort = iota
	GPIOPortB
	GPIOPortC
	numGPIOPorts
)

func (p GPIOPort) String() string {
	switch p {
	case GPIOPortA:
		return "GPIOA"
	case GPIOPortB:
		return "GPIOB"
	case GPIOPortC:
		return "GPIOC"
	}
	return "GPIO?"
}

// gpioModeField returns the 2-bit MODER field of a pin.
func gpioModeField(pin uint8) Field {
	return Field{Pos: 2 * pin, Width: 2}
}

// channelPin maps an ADC1 channel to its GPIO pin. Channels 16-18 are
// internal (temperature, VREFINT, VBAT) and have no pin.
func channelPin(ch uint8) (port GPIOPort, pin uint8, ok bool) {
	switch {
	case ch <= 7:
		return GPIOPortA, ch, true
	case ch <= 9:
		return GPIOPortB, ch - 8, true
	case ch <= 15:
		return GPIOPortC, ch - 10, true
	}
	return 0, 0, false
}
