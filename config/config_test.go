package config

import (
	"errors"
	"testing"

	"adcstream/core"
)

func TestLoadConfigDefaults(t *testing.T) {
	file, err := LoadConfig([]byte(`{}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if file.Prescaler != 6 || file.Resolution != 12 {
		t.Errorf("Expected div6 12-bit defaults, got /%d %d-bit", file.Prescaler, file.Resolution)
	}
	if len(file.Channels) != 2 || file.Channels[0].Channel != 1 || file.Channels[1].Channel != 4 {
		t.Errorf("Expected channels 1 and 4, got %+v", file.Channels)
	}

	cfg, err := file.Acquisition()
	if err != nil {
		t.Fatalf("Acquisition: %v", err)
	}
	def := core.DefaultAcquisitionConfig()
	if cfg.ADC != def.ADC || cfg.Stream != def.Stream {
		t.Errorf("defaults differ from firmware defaults:\n%+v\n%+v", cfg, def)
	}
	if cfg.Sequence.Len() != def.Sequence.Len() {
		t.Fatalf("Expected %d channels, got %d", def.Sequence.Len(), cfg.Sequence.Len())
	}
	for i := 0; i < cfg.Sequence.Len(); i++ {
		if cfg.Sequence.At(i) != def.Sequence.At(i) {
			t.Errorf("slot %d: %+v != %+v", i, cfg.Sequence.At(i), def.Sequence.At(i))
		}
	}
}

func TestLoadConfigExplicit(t *testing.T) {
	file, err := LoadConfig([]byte(`{
		"name": "three-inputs",
		"prescaler": 4,
		"resolution": 10,
		"channels": [
			{"channel": 0, "sampling_cycles": 480},
			{"channel": 8, "sampling_cycles": 56},
			{"channel": 16}
		],
		"dma": {"channel": 0, "circular": false}
	}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	cfg, err := file.Acquisition()
	if err != nil {
		t.Fatalf("Acquisition: %v", err)
	}
	if cfg.ADC.Prescaler != core.PrescalerDiv4 || cfg.ADC.Resolution != core.Resolution10Bit {
		t.Errorf("unexpected ADC config %+v", cfg.ADC)
	}
	if cfg.Sequence.Len() != 3 || cfg.Sequence.At(2).Sampling != core.SamplingCycles3 {
		t.Errorf("unexpected sequence")
	}
	if cfg.Stream.Circular || !cfg.Stream.MemoryIncrement {
		t.Errorf("Expected one-shot incrementing stream, got %+v", cfg.Stream)
	}
	if cfg.Stream.MemorySize != core.HalfWord {
		t.Errorf("Expected half-word samples, got %s", cfg.Stream.MemorySize)
	}
}

func TestAcquisitionRejectsBadValues(t *testing.T) {
	cases := []struct {
		json string
		want error
	}{
		{`{"prescaler": 3}`, core.ErrInvalidPrescaler},
		{`{"resolution": 14}`, core.ErrInvalidResolution},
		{`{"channels": [{"channel": 1, "sampling_cycles": 7}]}`, core.ErrInvalidSampling},
		{`{"channels": [{"channel": 20}]}`, core.ErrInvalidChannel},
		{`{"dma": {"channel": 9}}`, core.ErrInvalidDMAChannel},
	}
	for _, tc := range cases {
		file, err := LoadConfig([]byte(tc.json))
		if err != nil {
			t.Fatalf("%s: LoadConfig: %v", tc.json, err)
		}
		if _, err := file.Acquisition(); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.json, tc.want, err)
		}
	}
}

func TestLoadConfigMalformed(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"channels": 4`)); err == nil {
		t.Error("Expected a JSON error")
	}
}
