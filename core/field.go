package core

// Field is a contiguous bit field inside a 32-bit register.
type Field struct {
	Pos   uint8
	Width uint8
}

// Mask returns the unshifted mask of the field.
func (f Field) Mask() uint32 {
	return 1<<f.Width - 1
}

// InPlace returns the mask shifted to the field's position.
func (f Field) InPlace() uint32 {
	return f.Mask() << f.Pos
}

// Encode shifts v into the field's position, truncating to its width.
func (f Field) Encode(v uint32) uint32 {
	return (v & f.Mask()) << f.Pos
}

// Decode extracts the field from a full register value.
func (f Field) Decode(reg uint32) uint32 {
	return (reg >> f.Pos) & f.Mask()
}

// Assign writes v into the field, clearing it first, in a single
// read-modify-write. Other fields are left untouched.
func (f Field) Assign(r Register, v uint32) {
	r.ReplaceBits(v, f.Mask(), f.Pos)
}

// Flag assigns a single-bit field.
func (f Field) Flag(r Register, on bool) {
	if on {
		f.Assign(r, 1)
		return
	}
	f.Assign(r, 0)
}
