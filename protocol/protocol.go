// Package protocol frames diagnostic messages sent from the firmware to the
// host over the debug UART. The block layout follows Klipper's:
//
//	len | seq | payload ... | crc16 hi | crc16 lo | 0x7E
//
// where len counts the whole block and the CRC covers len, seq and payload.
package protocol

const (
	HeaderSize  = 2 // len, seq
	TrailerSize = 3 // crc16, sync
	FrameMin    = HeaderSize + TrailerSize
	FrameMax    = 255 // len is a single byte

	PositionLen = 0
	PositionSeq = 1

	SyncByte = 0x7E

	// SeqMask selects the sequence counter; the high nibble is fixed.
	SeqMask = 0x0F
	SeqDest = 0x10

	// ScratchSize is the capacity of a ScratchOutput.
	ScratchSize = 512
)

// Message is one decoded block.
type Message struct {
	Sequence uint8
	Payload  []byte
	CRC      uint16
}
