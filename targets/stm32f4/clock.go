//go:build stm32f4

package main

import (
	"errors"
	"machine"
	"runtime/volatile"
)

// Cortex-M4 debug block, used for the cycle counter
const (
	demcrAddr   = 0xE000EDFC
	dwtCtrlAddr = 0xE0001000
	dwtCycAddr  = 0xE0001004

	demcrTRCENA   = 1 << 24
	dwtCYCCNTENA  = 1 << 0
	rccCRPLLRDY   = 1 << 25
	rccCFGRSWSPos = 2
	rccCFGRSWSMsk = 0x3
	rccCFGRSWSPLL = 0x2

	// Polls of RCC before the clock is declared dead
	clockReadyTimeout = 0x0500
)

var (
	demcr   = reg(demcrAddr)
	dwtCtrl = reg(dwtCtrlAddr)
	dwtCyc  = reg(dwtCycAddr)
	rccCR   = reg(rccBase + 0x00)
	rccCFGR = reg(rccBase + 0x08)
)

var (
	errPLLNotReady  = errors.New("PLL not locked")
	errSysclkNotPLL = errors.New("SYSCLK not switched to PLL")
)

// cycleCounter is the DWT CYCCNT register, running at the core clock
type cycleCounter struct {
	cyc *volatile.Register32
}

// newCycleCounter enables tracing and starts CYCCNT
func newCycleCounter() *cycleCounter {
	demcr.SetBits(demcrTRCENA)
	dwtCyc.Set(0)
	dwtCtrl.SetBits(dwtCYCCNTENA)
	return &cycleCounter{cyc: dwtCyc}
}

func (c *cycleCounter) Ticks() uint32 {
	return c.cyc.Get()
}

func (c *cycleCounter) Frequency() uint32 {
	return machine.CPUFrequency()
}

// checkSystemClock confirms the runtime left the core on the PLL. The
// clock tree itself is set up by the TinyGo runtime before main.
func checkSystemClock() error {
	for i := 0; !rccCR.HasBits(rccCRPLLRDY); i++ {
		if i == clockReadyTimeout {
			return errPLLNotReady
		}
	}
	for i := 0; (rccCFGR.Get()>>rccCFGRSWSPos)&rccCFGRSWSMsk != rccCFGRSWSPLL; i++ {
		if i == clockReadyTimeout {
			return errSysclkNotPLL
		}
	}
	return nil
}
