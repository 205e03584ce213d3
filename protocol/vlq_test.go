package protocol

import "testing"

func TestVLQIntRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 31, -32, 95, 96, -33, 4095, -4096, 12287, 12288,
		1 << 20, -(1 << 20), 3<<26 - 1, 3 << 26, -(1 << 26) - 1, 1<<31 - 1, -1 << 31}

	for _, want := range values {
		out := NewScratchOutput()
		EncodeVLQInt(out, want)
		encoded := out.Result()

		data := encoded
		got, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("decode %d: %v", want, err)
			continue
		}
		if got != want {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as %v)", want, got, encoded)
		}
		if len(data) != 0 {
			t.Errorf("value %d: %d bytes left over", want, len(data))
		}
	}
}

func TestVLQUintRegisterValues(t *testing.T) {
	// Register snapshots carry full 32-bit values.
	values := []uint32{0, 0x7F, 0x80, 0x00100000, 0x40012000, 0x4001204C, 0xA8000000, 0xFFFFFFFF}

	for _, want := range values {
		out := NewScratchOutput()
		EncodeVLQUint(out, want)

		data := out.Result()
		got, err := DecodeVLQUint(&data)
		if err != nil {
			t.Errorf("decode 0x%08X: %v", want, err)
			continue
		}
		if got != want {
			t.Errorf("expected 0x%08X, got 0x%08X", want, got)
		}
	}
}

func TestVLQShortForms(t *testing.T) {
	cases := []struct {
		v    int32
		size int
	}{
		{0, 1},
		{95, 1},
		{-32, 1},
		{96, 2},
		{1 << 20, 3},
		{-1 << 31, 5},
	}
	for _, tc := range cases {
		out := NewScratchOutput()
		EncodeVLQInt(out, tc.v)
		if n := len(out.Result()); n != tc.size {
			t.Errorf("value %d: encoded in %d bytes, want %d", tc.v, n, tc.size)
		}
	}
}

func TestVLQTruncated(t *testing.T) {
	data := []byte{0x81} // continuation without a following byte
	before := data
	if _, err := DecodeVLQInt(&data); err != ErrTruncated {
		t.Errorf("Expected ErrTruncated, got %v", err)
	}
	if len(data) != len(before) {
		t.Errorf("truncated decode consumed input")
	}

	var empty []byte
	if _, err := DecodeVLQUint(&empty); err != ErrTruncated {
		t.Errorf("Expected ErrTruncated on empty input, got %v", err)
	}
}
