package core

import "fmt"

// Direction is the data flow of a DMA stream.
type Direction uint8

const (
	PeripheralToMemory Direction = iota
	MemoryToPeripheral
	MemoryToMemory
)

func (d Direction) String() string {
	switch d {
	case PeripheralToMemory:
		return "peripheral-to-memory"
	case MemoryToPeripheral:
		return "memory-to-peripheral"
	case MemoryToMemory:
		return "memory-to-memory"
	}
	return "reserved"
}

// WordSize is the width of one DMA data item.
type WordSize uint8

const (
	Byte WordSize = iota
	HalfWord
	Word
)

// Bytes returns the item width in bytes.
func (w WordSize) Bytes() uint32 {
	return 1 << w
}

func (w WordSize) String() string {
	switch w {
	case Byte:
		return "byte"
	case HalfWord:
		return "half-word"
	case Word:
		return "word"
	}
	return "reserved"
}

// SampleWordSize returns the DMA item width for samples of res. Results
// are right-aligned in the 16-bit data register at every resolution, so
// they are always moved as half-words.
func SampleWordSize(res Resolution) WordSize {
	return HalfWord
}

// MaxDMAChannel is the highest request channel a stream can select.
const MaxDMAChannel = 7

// DMAStreamConfig is the static setup of a DMA stream.
type DMAStreamConfig struct {
	Direction           Direction
	Circular            bool
	MemoryIncrement     bool
	PeripheralIncrement bool
	PeripheralSize      WordSize
	MemorySize          WordSize
	Channel             uint8
}

// TransferBinding connects a stream to its source and destination.
type TransferBinding struct {
	Source      uint32
	Destination uint32
	Count       uint16
}

// DMAStream is an idle, unconfigured stream.
type DMAStream struct {
	regs *DMAStreamRegisters
}

// NewDMAStream wraps a stream's registers. The DMA controller must be clocked.
func NewDMAStream(regs *DMAStreamRegisters) *DMAStream {
	return &DMAStream{regs: regs}
}

// Configure programs direction, circular mode, address increments, item
// sizes and request channel. The control register must not be written
// while the stream runs, so an enabled stream is rejected.
func (s *DMAStream) Configure(cfg DMAStreamConfig) (*ConfiguredStream, error) {
	if s.regs.CR.HasBits(dmaCREN.InPlace()) {
		return nil, ErrStreamActive
	}
	if cfg.Direction > MemoryToMemory {
		return nil, fmt.Errorf("direction %d: %w", cfg.Direction, ErrInvalidDirection)
	}
	if cfg.PeripheralSize > Word || cfg.MemorySize > Word {
		return nil, ErrInvalidWordSize
	}
	if cfg.Channel > MaxDMAChannel {
		return nil, fmt.Errorf("channel %d: %w", cfg.Channel, ErrInvalidDMAChannel)
	}

	cr := s.regs.CR
	dmaCRDIR.Assign(cr, uint32(cfg.Direction))
	dmaCRCIRC.Flag(cr, cfg.Circular)
	dmaCRMINC.Flag(cr, cfg.MemoryIncrement)
	dmaCRPINC.Flag(cr, cfg.PeripheralIncrement)
	dmaCRMSIZE.Assign(cr, uint32(cfg.MemorySize))
	dmaCRPSIZE.Assign(cr, uint32(cfg.PeripheralSize))
	dmaCRCHSEL.Assign(cr, uint32(cfg.Channel))

	return &ConfiguredStream{regs: s.regs, cfg: cfg}, nil
}

// ConfiguredStream is set up but not yet armed.
type ConfiguredStream struct {
	regs *DMAStreamRegisters
	cfg  DMAStreamConfig
}

// Config returns the stream setup.
func (s *ConfiguredStream) Config() DMAStreamConfig {
	return s.cfg
}

// Bind loads the item count and both addresses, then enables the stream.
// From here on the stream moves Count items per request cycle on its own,
// reloading the count when circular mode is set. There is no unbind.
func (s *ConfiguredStream) Bind(b TransferBinding) (*ArmedStream, error) {
	if b.Count == 0 {
		return nil, ErrTransferCount
	}

	dmaNDTRSize.Assign(s.regs.NDTR, uint32(b.Count))
	s.regs.PAR.Set(b.Source)
	s.regs.M0AR.Set(b.Destination)
	dmaCREN.Flag(s.regs.CR, true)

	return &ArmedStream{cfg: s.cfg, binding: b}, nil
}

// ArmedStream is an enabled stream waiting for peripheral requests.
type ArmedStream struct {
	cfg     DMAStreamConfig
	binding TransferBinding
}

// Config returns the stream setup.
func (s *ArmedStream) Config() DMAStreamConfig {
	return s.cfg
}

// Binding returns the addresses and count the stream was armed with.
func (s *ArmedStream) Binding() TransferBinding {
	return s.binding
}
