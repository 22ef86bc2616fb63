package resource

import (
	"sync"

	"github.com/juju/errors"
)

// ID is the stable small-integer identity of a resource within a Directory.
// IDs are dense: surfaces are numbered 0..SurfaceCount()-1 and outputs
// 0..OutputCount()-1, independently.
type ID uint32

// Kind discriminates the two addressable resource kinds.
type Kind uint8

const (
	KindSurface Kind = iota
	KindOutput
)

func (k Kind) String() string {
	switch k {
	case KindSurface:
		return "surface"
	case KindOutput:
		return "output"
	}
	return "unknown"
}

// Object is implemented by every addressable resource.
type Object interface {
	ID() ID
	Kind() Kind
}

// Txn is the view of the owning transaction that staged state keeps a
// back-reference to. Only the transaction-wide flags are needed back at
// commit time, so the engine's transaction type stays above this package.
type Txn interface {
	Flags() uint32
}

// Event is an opaque completion token attached to an output's staged state.
// It is handed to the driver's flip/config primitives untouched; this
// package never inspects or delivers it.
type Event interface{}

// Directory enumerates the addressable resources of a device. The set of
// resources is fixed at construction; transactions snapshot the counts at
// begin time and rely on them not changing while they are open.
//
// The Directory also owns the coarse layout lock serializing every commit
// step that can touch shared layout state (surface updates and full output
// reconfiguration).
type Directory struct {
	layoutMu sync.Mutex

	surfaces []*Surface
	outputs  []*Output
	wiring   []*Wiring
}

// NewDirectory creates a directory with the given number of surfaces and
// outputs, each starting with an empty live state (nothing bound).
func NewDirectory(numSurfaces, numOutputs int) *Directory {
	d := &Directory{
		surfaces: make([]*Surface, numSurfaces),
		outputs:  make([]*Output, numOutputs),
	}
	for i := range d.surfaces {
		d.surfaces[i] = &Surface{id: ID(i), state: &SurfaceState{}}
	}
	for i := range d.outputs {
		d.outputs[i] = &Output{id: ID(i), state: &OutputState{}}
	}
	return d
}

func (d *Directory) SurfaceCount() int { return len(d.surfaces) }
func (d *Directory) OutputCount() int  { return len(d.outputs) }

// Surface returns the surface with the given identity, or nil if out of range.
func (d *Directory) Surface(id ID) *Surface {
	if int(id) >= len(d.surfaces) {
		return nil
	}
	return d.surfaces[id]
}

// Output returns the output with the given identity, or nil if out of range.
func (d *Directory) Output(id ID) *Output {
	if int(id) >= len(d.outputs) {
		return nil
	}
	return d.outputs[id]
}

// AddWiring registers a physical connector and returns its handle. Wiring is
// registered at device bring-up, before any transaction runs.
func (d *Directory) AddWiring(name string) *Wiring {
	w := &Wiring{id: ID(len(d.wiring)), Name: name, Connected: true}
	d.wiring = append(d.wiring, w)
	return w
}

// ResolveWiring maps wiring IDs to live wiring objects. An unknown ID fails
// the whole resolution; a full-reconfiguration commit must not proceed with
// a partial connector set.
func (d *Directory) ResolveWiring(ids []ID) ([]*Wiring, error) {
	set := make([]*Wiring, 0, len(ids))
	for _, id := range ids {
		if int(id) >= len(d.wiring) {
			return nil, errors.NotFoundf("wiring %d", id)
		}
		set = append(set, d.wiring[id])
	}
	return set, nil
}

// LockLayout acquires the coarse lock covering shared layout state. Held
// around each surface commit step and each full output reconfiguration.
func (d *Directory) LockLayout() { d.layoutMu.Lock() }

// UnlockLayout releases the layout lock.
func (d *Directory) UnlockLayout() { d.layoutMu.Unlock() }
