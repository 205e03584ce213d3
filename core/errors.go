package core

import "errors"

var (
	ErrEmptySequence     = errors.New("conversion sequence is empty")
	ErrSequenceTooLong   = errors.New("conversion sequence exceeds 16 channels")
	ErrInvalidChannel    = errors.New("invalid ADC channel")
	ErrInvalidSampling   = errors.New("invalid sampling time")
	ErrInvalidPrescaler  = errors.New("invalid ADC prescaler")
	ErrInvalidResolution = errors.New("invalid ADC resolution")
	ErrStreamActive      = errors.New("DMA stream is enabled")
	ErrInvalidDMAChannel = errors.New("invalid DMA channel")
	ErrInvalidDirection  = errors.New("invalid DMA direction")
	ErrInvalidWordSize   = errors.New("invalid DMA word size")
	ErrTransferCount     = errors.New("DMA transfer count out of range")
	ErrWordSizeMismatch  = errors.New("DMA word size does not match ADC sample width")
	ErrCountMismatch     = errors.New("DMA transfer count does not match sequence length")
)
