package protocol

import "errors"

var ErrFrameTooLarge = errors.New("payload does not fit in one block")

// Encoder writes framed messages with an incrementing sequence number.
type Encoder struct {
	output OutputBuffer
	seq    uint8
}

// NewEncoder frames into output.
func NewEncoder(output OutputBuffer) *Encoder {
	return &Encoder{output: output}
}

// Sync writes a lone sync byte. A receiver that lost track of block
// boundaries (for example after plain-text debug output on the same line)
// resumes at the next sync byte, so one is sent ahead of each report.
func (e *Encoder) Sync() {
	e.output.Output([]byte{SyncByte})
}

// EncodeFrame writes one block whose payload is produced by frameData.
// A payload too large for one block leaves a malformed block in the
// output, which the receiver will skip, and ErrFrameTooLarge is returned.
func (e *Encoder) EncodeFrame(frameData func(output OutputBuffer)) error {
	cursor := e.output.CurPosition()

	seq := SeqDest | e.seq&SeqMask
	e.seq++
	e.output.Output([]byte{0, seq})

	frameData(e.output)

	size := len(e.output.DataSince(cursor)) + TrailerSize
	e.output.Update(cursor+PositionLen, uint8(size))

	crc := CRC16(e.output.DataSince(cursor))
	e.output.Output([]byte{uint8(crc >> 8), uint8(crc), SyncByte})
	if size > FrameMax {
		return ErrFrameTooLarge
	}
	return nil
}

// Decoder reassembles blocks from a byte stream. Garbage and corrupted
// blocks are skipped by hunting for the next sync byte.
type Decoder struct {
	fifo         *FifoBuffer
	synchronized bool
	dropped      int
}

// NewDecoder returns a decoder buffering up to capacity bytes.
func NewDecoder(capacity int) *Decoder {
	if capacity <= FrameMax {
		capacity = FrameMax + 1
	}
	return &Decoder{fifo: NewFifoBuffer(capacity), synchronized: true}
}

// Write buffers raw bytes. Bytes that do not fit are reported as a short
// write and should be offered again after Next has drained the buffer.
func (d *Decoder) Write(p []byte) (int, error) {
	return d.fifo.Write(p), nil
}

// Dropped returns how many bytes were discarded while resynchronizing.
func (d *Decoder) Dropped() int {
	return d.dropped
}

// Next returns the next complete block, or false when more bytes are needed.
func (d *Decoder) Next() (Message, bool) {
	for {
		data := d.fifo.Data()
		if len(data) == 0 {
			return Message{}, false
		}

		if !d.synchronized {
			skip := len(data)
			for i, b := range data {
				if b == SyncByte {
					skip = i + 1
					d.synchronized = true
					break
				}
			}
			d.discard(skip)
			continue
		}

		if data[0] == SyncByte {
			d.fifo.Pop(1)
			continue
		}
		if len(data) < FrameMin {
			return Message{}, false
		}

		size := int(data[PositionLen])
		if size < FrameMin || data[PositionSeq]&^SeqMask != SeqDest {
			d.desync()
			continue
		}
		if len(data) < size {
			return Message{}, false
		}
		if data[size-1] != SyncByte {
			d.desync()
			continue
		}
		crc := uint16(data[size-TrailerSize])<<8 | uint16(data[size-TrailerSize+1])
		if CRC16(data[:size-TrailerSize]) != crc {
			d.desync()
			continue
		}

		msg := Message{
			Sequence: data[PositionSeq] & SeqMask,
			Payload:  append([]byte(nil), data[HeaderSize:size-TrailerSize]...),
			CRC:      crc,
		}
		d.fifo.Pop(size)
		return msg, true
	}
}

func (d *Decoder) desync() {
	d.synchronized = false
	d.discard(1)
}

func (d *Decoder) discard(n int) {
	d.fifo.Pop(n)
	d.dropped += n
}
