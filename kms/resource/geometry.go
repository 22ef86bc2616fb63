package resource

// Rect is a destination rectangle in whole pixels on an output.
type Rect struct {
	X, Y int32
	W, H uint32
}

// FixedRect is a source crop rectangle in 16.16 fixed point, allowing
// subpixel positioning when scanning out of a framebuffer.
type FixedRect struct {
	X, Y int32
	W, H uint32
}

// FixedShift is the fractional bit count of FixedRect coordinates.
const FixedShift = 16

// ToFixed converts whole pixels to 16.16 fixed point.
func ToFixed(v uint32) uint32 { return v << FixedShift }

// FromFixed truncates 16.16 fixed point to whole pixels.
func FromFixed(v uint32) uint32 { return v >> FixedShift }

// FixedFull returns a source rectangle covering an entire w x h framebuffer.
func FixedFull(w, h uint32) FixedRect {
	return FixedRect{W: ToFixed(w), H: ToFixed(h)}
}
