//go:build stm32f4

package main

import (
	"adcstream/core"
	"runtime/volatile"
	"unsafe"
)

// STM32F4 memory map (RM0090 section 2.3)
const (
	rccBase       = 0x40023800
	gpioABase     = 0x40020000
	gpioBBase     = 0x40020400
	gpioCBase     = 0x40020800
	adc1Base      = core.ADC1Base
	adcCommonBase = 0x40012300
	dma2S0Base    = core.DMA2Stream0Base
)

func reg(addr uintptr) *volatile.Register32 {
	return (*volatile.Register32)(unsafe.Pointer(addr))
}

// peripherals binds the acquisition register blocks to the hardware.
var peripherals = core.Peripherals{
	RCC: core.RCCRegisters{
		AHB1ENR: reg(rccBase + 0x30),
		APB2ENR: reg(rccBase + 0x44),
	},
	ADC: core.ADCRegisters{
		SR:        reg(adc1Base + 0x00),
		CR1:       reg(adc1Base + 0x04),
		CR2:       reg(adc1Base + 0x08),
		SMPR1:     reg(adc1Base + 0x0C),
		SMPR2:     reg(adc1Base + 0x10),
		SQR1:      reg(adc1Base + 0x2C),
		SQR2:      reg(adc1Base + 0x30),
		SQR3:      reg(adc1Base + 0x34),
		DR:        reg(adc1Base + 0x4C),
		DRAddress: core.ADC1DataRegisterAddress,
	},
	ADCCommon: core.ADCCommonRegisters{
		CCR: reg(adcCommonBase + 0x04),
	},
	DMA: core.DMAStreamRegisters{
		CR:   reg(dma2S0Base + 0x00),
		NDTR: reg(dma2S0Base + 0x04),
		PAR:  reg(dma2S0Base + 0x08),
		M0AR: reg(dma2S0Base + 0x0C),
	},
	GPIO: [3]core.GPIORegisters{
		core.GPIOPortA: {MODER: reg(gpioABase)},
		core.GPIOPortB: {MODER: reg(gpioBBase)},
		core.GPIOPortC: {MODER: reg(gpioCBase)},
	},
}
