package atomic

import (
	"github.com/juju/errors"

	"github.com/tinykms/tinykms/kms/resource"
)

// PropertyInterpreter maps named configuration knobs onto staged state.
// Interpretation of specific property names is a collaborator concern; the
// engine only guarantees the resource is staged before any mutation.
type PropertyInterpreter interface {
	SetSurfaceProperty(st *resource.SurfaceState, name string, value uint64) error
	SetOutputProperty(st *resource.OutputState, name string, value uint64) error
}

// SetProperty stages res and hands its shadow plus (name, value) to the
// engine's property interpreter. Fails with ErrUnsupported when no
// interpreter is installed.
func (t *Txn) SetProperty(res resource.Object, name string, value uint64) error {
	if t.engine.props == nil {
		return errors.Trace(&ErrUnsupportedResource{Op: "set-property", Kind: res.Kind(), ID: res.ID()})
	}
	switch r := res.(type) {
	case *resource.Surface:
		st, err := t.StageSurface(r)
		if err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(t.engine.props.SetSurfaceProperty(st, name, value))
	case *resource.Output:
		st, err := t.StageOutput(r)
		if err != nil {
			return errors.Trace(err)
		}
		return errors.Trace(t.engine.props.SetOutputProperty(st, name, value))
	}
	return errors.Trace(&ErrUnsupportedResource{Op: "set-property", Kind: res.Kind(), ID: res.ID()})
}
