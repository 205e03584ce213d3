//go:build stm32f4

package main

import (
	"adcstream/core"
	"adcstream/protocol"
	"device/arm"
	"machine"
)

var (
	// acquisition owns the DMA destination buffer for the life of the
	// firmware; keeping it in a package variable keeps the buffer alive.
	acquisition *core.AcquisitionController

	reportOutput = protocol.NewScratchOutput()
)

func main() {
	// Debug output goes to the board's default UART
	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)

	ticks := newCycleCounter()
	acquisition = core.NewAcquisitionController(&peripherals, ticks, core.DefaultAcquisitionConfig())

	// Fatal halts inside BringUp, so an error only returns here if the halt
	// handler was replaced.
	if err := acquisition.BringUp(core.SystemClockFunc(checkSystemClock)); err != nil {
		core.DebugPrintln("bring-up: " + err.Error())
		return
	}

	sendReport()

	// ADC and DMA run on their own from here
	for {
		arm.Asm("wfi")
	}
}

// sendReport writes one framed register snapshot for adcstream-host monitor
func sendReport() {
	reportOutput.Reset()
	enc := protocol.NewEncoder(reportOutput)
	enc.Sync()
	if err := enc.EncodeFrame(core.TakeSnapshot(&peripherals).Encode); err != nil {
		core.DebugPrintln("report: " + err.Error())
		return
	}
	machine.Serial.Write(reportOutput.Result())
}
