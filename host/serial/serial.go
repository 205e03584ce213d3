package serial

import (
	"io"
)

// Port is a serial connection to the board's debug UART. Tests substitute
// an io.Pipe or similar.
type Port interface {
	io.ReadWriteCloser
}

// Config holds serial port configuration
type Config struct {
	// Device path (e.g., "/dev/ttyACM0", "COM3")
	Device string

	// Baud rate of the board's debug UART
	Baud int

	// Read timeout in milliseconds (0 = blocking)
	ReadTimeout int
}

// DefaultConfig returns the settings the firmware's UART uses.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
