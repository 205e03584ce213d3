// Package config loads an acquisition description from JSON for host-side
// planning and verification. The firmware compiles its configuration in.
package config

import (
	"encoding/json"
	"fmt"

	"adcstream/core"
)

// ChannelConfig is one entry of the scan sequence.
type ChannelConfig struct {
	Channel        uint8  `json:"channel"`
	SamplingCycles uint32 `json:"sampling_cycles"`
}

// DMAConfig selects and sets up the DMA stream.
type DMAConfig struct {
	Channel    uint8 `json:"channel"`
	Circular   *bool `json:"circular,omitempty"`
	MemoryInc  *bool `json:"memory_increment,omitempty"`
	Peripheral bool  `json:"peripheral_increment"`
}

// AcquisitionFile is the on-disk form of an acquisition setup.
type AcquisitionFile struct {
	Name       string          `json:"name"`
	Prescaler  uint32          `json:"prescaler"`
	Resolution uint8           `json:"resolution"`
	Channels   []ChannelConfig `json:"channels"`
	DMA        DMAConfig       `json:"dma"`
}

// LoadConfig parses a JSON configuration and fills in defaults
func LoadConfig(jsonData []byte) (*AcquisitionFile, error) {
	var file AcquisitionFile

	if err := json.Unmarshal(jsonData, &file); err != nil {
		return nil, err
	}

	applyDefaults(&file)

	return &file, nil
}

// applyDefaults fills in missing values with those of the reference board
func applyDefaults(file *AcquisitionFile) {
	if file.Name == "" {
		file.Name = "adc1-dma2"
	}
	if file.Prescaler == 0 {
		file.Prescaler = 6 // PCLK2/6
	}
	if file.Resolution == 0 {
		file.Resolution = 12
	}
	if len(file.Channels) == 0 {
		file.Channels = []ChannelConfig{{Channel: 1}, {Channel: 4}}
	}
	for i := range file.Channels {
		if file.Channels[i].SamplingCycles == 0 {
			file.Channels[i].SamplingCycles = 3
		}
	}
	if file.DMA.Circular == nil {
		on := true
		file.DMA.Circular = &on
	}
	if file.DMA.MemoryInc == nil {
		on := true
		file.DMA.MemoryInc = &on
	}
}

// DefaultConfig returns the configuration the firmware is built with.
func DefaultConfig() *AcquisitionFile {
	file := &AcquisitionFile{}
	applyDefaults(file)
	return file
}

// Acquisition converts the file into a validated core configuration.
func (f *AcquisitionFile) Acquisition() (core.AcquisitionConfig, error) {
	var cfg core.AcquisitionConfig

	chs := make([]core.ConversionChannel, len(f.Channels))
	for i, c := range f.Channels {
		smp, err := core.SamplingTimeFromCycles(c.SamplingCycles)
		if err != nil {
			return cfg, fmt.Errorf("channel %d: %w", c.Channel, err)
		}
		chs[i] = core.ConversionChannel{Index: c.Channel, Sampling: smp}
	}
	seq, err := core.NewConversionSequence(chs...)
	if err != nil {
		return cfg, err
	}

	pre, err := core.PrescalerFromDivider(f.Prescaler)
	if err != nil {
		return cfg, err
	}
	res, err := core.ResolutionFromBits(f.Resolution)
	if err != nil {
		return cfg, err
	}
	size := core.SampleWordSize(res)

	cfg = core.AcquisitionConfig{
		Sequence: seq,
		ADC:      core.ADCConfig{Prescaler: pre, Resolution: res},
		Stream: core.DMAStreamConfig{
			Direction:           core.PeripheralToMemory,
			Circular:            f.DMA.Circular == nil || *f.DMA.Circular,
			MemoryIncrement:     f.DMA.MemoryInc == nil || *f.DMA.MemoryInc,
			PeripheralIncrement: f.DMA.Peripheral,
			PeripheralSize:      size,
			MemorySize:          size,
			Channel:             f.DMA.Channel,
		},
	}
	if f.DMA.Channel > core.MaxDMAChannel {
		return cfg, fmt.Errorf("dma channel %d: %w", f.DMA.Channel, core.ErrInvalidDMAChannel)
	}
	return cfg, cfg.Validate()
}
