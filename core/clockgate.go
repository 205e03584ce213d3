package core

// Peripheral is a set of peripherals whose bus clocks can be gated.
type Peripheral uint8

const (
	PeriphADC1 Peripheral = 1 << iota
	PeriphDMA2
	PeriphGPIOA
	PeriphGPIOB
	PeriphGPIOC
)

// gpioPeripheral returns the clock gate bit for a GPIO port.
func gpioPeripheral(p GPIOPort) Peripheral {
	return PeriphGPIOA << p
}

// EnableClocks sets the clock enable bit of every peripheral in set. It
// must run before any register of those peripherals is touched; the order
// between peripherals does not matter.
func EnableClocks(rcc RCCRegisters, set Peripheral) {
	var ahb1 uint32
	if set&PeriphGPIOA != 0 {
		ahb1 |= rccAHB1ENRGPIOAEN
	}
	if set&PeriphGPIOB != 0 {
		ahb1 |= rccAHB1ENRGPIOBEN
	}
	if set&PeriphGPIOC != 0 {
		ahb1 |= rccAHB1ENRGPIOCEN
	}
	if set&PeriphDMA2 != 0 {
		ahb1 |= rccAHB1ENRDMA2EN
	}
	if ahb1 != 0 {
		rcc.AHB1ENR.SetBits(ahb1)
	}
	if set&PeriphADC1 != 0 {
		rcc.APB2ENR.SetBits(rccAPB2ENRADC1EN)
	}
}
