package protocol

// OutputBuffer accumulates an outgoing block. Update patches a byte that
// was written earlier (the length header).
type OutputBuffer interface {
	Output(data []byte)
	CurPosition() int
	Update(pos int, val byte)
	DataSince(pos int) []byte
}

// ScratchOutput is a fixed-size OutputBuffer that never allocates, so it
// can be used before the heap is trusted.
type ScratchOutput struct {
	buf [ScratchSize]byte
	pos int
}

// NewScratchOutput returns an empty buffer.
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

// Output appends data, silently truncating at capacity.
func (s *ScratchOutput) Output(data []byte) {
	s.pos += copy(s.buf[s.pos:], data)
}

func (s *ScratchOutput) CurPosition() int {
	return s.pos
}

func (s *ScratchOutput) Update(pos int, val byte) {
	if pos < s.pos {
		s.buf[pos] = val
	}
}

func (s *ScratchOutput) DataSince(pos int) []byte {
	if pos > s.pos {
		return nil
	}
	return s.buf[pos:s.pos]
}

// Result returns everything written since the last Reset.
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

// Reset empties the buffer.
func (s *ScratchOutput) Reset() {
	s.pos = 0
}

// FifoBuffer is a byte ring used on the host to reassemble blocks that
// arrive split across serial reads.
type FifoBuffer struct {
	buf   []byte
	read  int
	write int
}

// NewFifoBuffer creates a ring holding up to capacity-1 bytes.
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write stores as much of data as fits and returns the count stored.
func (f *FifoBuffer) Write(data []byte) int {
	n := 0
	for _, b := range data {
		next := (f.write + 1) % len(f.buf)
		if next == f.read {
			break
		}
		f.buf[f.write] = b
		f.write = next
		n++
	}
	return n
}

// Available returns the number of buffered bytes.
func (f *FifoBuffer) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return len(f.buf) - f.read + f.write
}

// Free returns the room left for Write.
func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.Available() - 1
}

// Data returns the buffered bytes as one contiguous slice, copying when
// the ring has wrapped.
func (f *FifoBuffer) Data() []byte {
	if f.read <= f.write {
		return f.buf[f.read:f.write]
	}
	out := make([]byte, 0, f.Available())
	out = append(out, f.buf[f.read:]...)
	return append(out, f.buf[:f.write]...)
}

// Pop discards n bytes from the front.
func (f *FifoBuffer) Pop(n int) {
	if n > f.Available() {
		n = f.Available()
	}
	f.read = (f.read + n) % len(f.buf)
}

// Reset empties the ring.
func (f *FifoBuffer) Reset() {
	f.read, f.write = 0, 0
}
