package protocol

import "errors"

var ErrTruncated = errors.New("truncated VLQ")

// EncodeVLQInt writes v as a Klipper variable length quantity: 7 bits per
// byte, most significant group first, continuation in bit 7. Small negative
// values stay short because bit 6 of the first byte sign-extends.
func EncodeVLQInt(out OutputBuffer, v int32) {
	var buf [5]byte
	n := 0
	if v < -(1<<26) || v >= 3<<26 {
		buf[n] = byte(v>>28)&0x7F | 0x80
		n++
	}
	if v < -(1<<19) || v >= 3<<19 {
		buf[n] = byte(v>>21)&0x7F | 0x80
		n++
	}
	if v < -(1<<12) || v >= 3<<12 {
		buf[n] = byte(v>>14)&0x7F | 0x80
		n++
	}
	if v < -(1<<5) || v >= 3<<5 {
		buf[n] = byte(v>>7)&0x7F | 0x80
		n++
	}
	buf[n] = byte(v) & 0x7F
	out.Output(buf[:n+1])
}

// EncodeVLQUint writes an unsigned value; it shares the signed encoding.
func EncodeVLQUint(out OutputBuffer, v uint32) {
	EncodeVLQInt(out, int32(v))
}

// DecodeVLQInt reads one quantity and advances data past it.
func DecodeVLQInt(data *[]byte) (int32, error) {
	d := *data
	if len(d) == 0 {
		return 0, ErrTruncated
	}
	c := uint32(d[0])
	d = d[1:]
	v := c & 0x7F
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F)
	}
	for c&0x80 != 0 {
		if len(d) == 0 {
			return 0, ErrTruncated
		}
		c = uint32(d[0])
		d = d[1:]
		v = v<<7 | c&0x7F
	}
	*data = d
	return int32(v), nil
}

// DecodeVLQUint reads one unsigned quantity.
func DecodeVLQUint(data *[]byte) (uint32, error) {
	v, err := DecodeVLQInt(data)
	return uint32(v), err
}
