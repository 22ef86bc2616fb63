package hw

import (
	"sync"

	"github.com/juju/errors"

	"github.com/tinykms/tinykms/kms/resource"
)

// MemHW is a software device backed by memory. It mirrors what real
// hardware registers would hold so tests and the demo binary can observe
// exactly what was applied. It holds no framebuffer references of its own;
// ownership stays with the live resource states.
type MemHW struct {
	mu sync.Mutex

	surfaces []SurfaceRegs
	outputs  []OutputRegs
	flips    []FlipRecord
	configs  []ConfigRecord

	// Injectable failures, used by tests to exercise the partial-failure
	// commit paths. When non-nil the corresponding primitive fails without
	// touching register state.
	UpdateErr  error
	DisableErr error
	FlipErr    error
	ConfigErr  error
}

// SurfaceRegs mirrors one surface's scanout registers.
type SurfaceRegs struct {
	Bound  bool
	Output resource.ID
	FB     *resource.Framebuffer
	Dst    resource.Rect
	Src    resource.FixedRect
}

// OutputRegs mirrors one output's controller registers.
type OutputRegs struct {
	FB     *resource.Framebuffer
	Mode   *resource.Mode
	X, Y   int32
	Wiring []string
}

// FlipRecord is one submitted page flip.
type FlipRecord struct {
	Output resource.ID
	FB     *resource.Framebuffer
	Event  resource.Event
	Flags  uint32
}

// ConfigRecord is one submitted full reconfiguration.
type ConfigRecord struct {
	Output resource.ID
	FB     *resource.Framebuffer
	Mode   *resource.Mode
	Wiring []string
}

// NewMemHW creates a software device for the given resource shape.
func NewMemHW(numSurfaces, numOutputs int) *MemHW {
	return &MemHW{
		surfaces: make([]SurfaceRegs, numSurfaces),
		outputs:  make([]OutputRegs, numOutputs),
	}
}

func (m *MemHW) UpdateSurface(s *resource.Surface, o *resource.Output, fb *resource.Framebuffer,
	dst resource.Rect, src resource.FixedRect) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.surfaces[s.ID()] = SurfaceRegs{Bound: true, Output: o.ID(), FB: fb, Dst: dst, Src: src}
	return nil
}

func (m *MemHW) DisableSurface(s *resource.Surface) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DisableErr != nil {
		return m.DisableErr
	}
	m.surfaces[s.ID()] = SurfaceRegs{}
	return nil
}

func (m *MemHW) PageFlip(o *resource.Output, fb *resource.Framebuffer, ev resource.Event, flags uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FlipErr != nil {
		return m.FlipErr
	}
	m.outputs[o.ID()].FB = fb
	m.flips = append(m.flips, FlipRecord{Output: o.ID(), FB: fb, Event: ev, Flags: flags})
	return nil
}

func (m *MemHW) ApplyConfig(req *ConfigRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConfigErr != nil {
		return m.ConfigErr
	}
	names := make([]string, 0, len(req.Wiring))
	for _, w := range req.Wiring {
		if !w.Connected {
			return errors.NotValidf("wiring %q disconnected", w.Name)
		}
		names = append(names, w.Name)
	}
	m.outputs[req.Output.ID()] = OutputRegs{
		FB:     req.FB,
		Mode:   req.Mode,
		X:      req.X,
		Y:      req.Y,
		Wiring: names,
	}
	m.configs = append(m.configs, ConfigRecord{
		Output: req.Output.ID(),
		FB:     req.FB,
		Mode:   req.Mode,
		Wiring: names,
	})
	return nil
}

// CheckSurface validates staged surface geometry: the source crop must lie
// within the framebuffer. Disables (no output or no framebuffer) always
// pass.
func (m *MemHW) CheckSurface(s *resource.Surface, st *resource.SurfaceState) error {
	if st.Output == nil || st.FB == nil {
		return nil
	}
	if st.Src.X < 0 || st.Src.Y < 0 {
		return errors.BadRequestf("surface %d: negative source origin", s.ID())
	}
	// Edges are computed in 64 bits; a huge crop must not wrap around the
	// 32-bit fixed-point range and slip under the framebuffer bounds.
	srcRight := uint64(uint32(st.Src.X)) + uint64(st.Src.W)
	srcBottom := uint64(uint32(st.Src.Y)) + uint64(st.Src.H)
	if srcRight > uint64(resource.ToFixed(st.FB.Width)) || srcBottom > uint64(resource.ToFixed(st.FB.Height)) {
		return errors.BadRequestf("surface %d: source %dx%d+%d+%d exceeds framebuffer %dx%d",
			s.ID(), resource.FromFixed(st.Src.W), resource.FromFixed(st.Src.H),
			resource.FromFixed(uint32(st.Src.X)), resource.FromFixed(uint32(st.Src.Y)),
			st.FB.Width, st.FB.Height)
	}
	if st.Dst.W == 0 || st.Dst.H == 0 {
		return errors.BadRequestf("surface %d: empty destination rectangle", s.ID())
	}
	return nil
}

// SurfaceRegsFor returns the mirrored registers for a surface.
func (m *MemHW) SurfaceRegsFor(id resource.ID) SurfaceRegs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.surfaces[id]
}

// OutputRegsFor returns the mirrored registers for an output.
func (m *MemHW) OutputRegsFor(id resource.ID) OutputRegs {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.outputs[id]
	o.Wiring = append([]string(nil), o.Wiring...)
	return o
}

// Flips returns every page flip submitted so far.
func (m *MemHW) Flips() []FlipRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FlipRecord(nil), m.flips...)
}

// Configs returns every full reconfiguration submitted so far.
func (m *MemHW) Configs() []ConfigRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ConfigRecord(nil), m.configs...)
}
