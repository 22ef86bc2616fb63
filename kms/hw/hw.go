// Package hw is the boundary between the transaction engine and the
// hardware-specific apply primitives. The engine treats every primitive as
// an opaque, potentially slow, synchronous call; primitives may block on
// vertical-blank synchronization. A caller wanting asynchronous submission
// requests it through the transaction flags, which are forwarded to the
// primitives untouched.
package hw

import (
	"github.com/tinykms/tinykms/kms/resource"
)

// ConfigRequest is a one-shot full-reconfiguration request for an output:
// mode, position, connector wiring and framebuffer, all applied together.
// A nil FB (and nil Mode) disables the output.
//
// FB is borrowed for the duration of the call. A driver that retains the
// framebuffer beyond the call must take its own reference; the engine's
// reference accounting is settled independently through the state swap.
type ConfigRequest struct {
	Output *resource.Output
	FB     *resource.Framebuffer
	Mode   *resource.Mode
	X, Y   int32
	Wiring []*resource.Wiring
	Event  resource.Event
}

// SurfaceDriver supplies the per-surface apply primitives.
type SurfaceDriver interface {
	// UpdateSurface scans fb out through surface s onto output o, placing
	// the src crop (16.16 fixed point) into the dst rectangle.
	UpdateSurface(s *resource.Surface, o *resource.Output, fb *resource.Framebuffer,
		dst resource.Rect, src resource.FixedRect) error

	// DisableSurface stops scanout through s. A failure must leave the
	// surface's previous scanout untouched.
	DisableSurface(s *resource.Surface) error
}

// OutputDriver supplies the full-reconfiguration primitive. This may
// perform a complete modeset; the engine holds the layout lock around it.
type OutputDriver interface {
	ApplyConfig(req *ConfigRequest) error
}

// Driver is what the engine requires from a concrete device.
type Driver interface {
	SurfaceDriver
	OutputDriver
}

// Flipper is implemented by drivers with a dedicated page-flip primitive.
// Drivers without it cause image-only output updates to fail as
// unsupported. ev is an opaque completion token to be delivered (by the
// driver, not the engine) once the flip latches; flags are the
// transaction's flags.
type Flipper interface {
	PageFlip(o *resource.Output, fb *resource.Framebuffer, ev resource.Event, flags uint32) error
}

// SurfaceChecker is implemented by drivers that can validate staged surface
// state during the check phase. The hook must be a pure function of the
// surface and its staged state: no allocation that needs matching release,
// no touching of live state.
type SurfaceChecker interface {
	CheckSurface(s *resource.Surface, st *resource.SurfaceState) error
}

// NoFlip strips the page-flip capability from a driver. Useful for devices
// (and tests) where image updates must go through full reconfiguration.
type NoFlip struct {
	Driver
}
