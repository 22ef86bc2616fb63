package atomic

import (
	"fmt"

	"github.com/juju/errors"

	"github.com/tinykms/tinykms/kms/resource"
)

// ErrBusy is returned by Begin when an async-incompatible update arrives
// while an earlier asynchronous update is still outstanding. Client should
// wait for the pending completion event then retry.
type ErrBusy struct{}

func (e *ErrBusy) Error() string {
	return "atomic update still pending"
}

// ErrUnsupportedResource is returned when an operation is not meaningful
// for a resource kind, e.g. attaching a completion event to a surface.
type ErrUnsupportedResource struct {
	Op   string
	Kind resource.Kind
	ID   resource.ID
}

func (e *ErrUnsupportedResource) Error() string {
	return fmt.Sprintf("%s not supported on %s %d", e.Op, e.Kind, e.ID)
}

// ErrUnsupported is returned when the driver does not implement the
// primitive an operation needs, e.g. a page flip without a flip primitive.
type ErrUnsupported struct {
	Op     string
	Output resource.ID
}

func (e *ErrUnsupported) Error() string {
	return fmt.Sprintf("%s not implemented for output %d", e.Op, e.Output)
}

// ErrResourceUnbound is returned when a page flip targets an output with no
// framebuffer currently bound. This signals a transient race, typically a
// hotplug event the client has not yet discovered; the client should
// re-query output state and retry.
type ErrResourceUnbound struct {
	Output resource.ID
}

func (e *ErrResourceUnbound) Error() string {
	return fmt.Sprintf("output %d has no framebuffer bound", e.Output)
}

// ErrInvalidRequest is a check-phase rejection from a resource's check
// hook, or a commit-time reference to an unknown object.
type ErrInvalidRequest struct {
	Kind resource.Kind
	ID   resource.ID
	Err  error
}

func (e *ErrInvalidRequest) Error() string {
	return fmt.Sprintf("invalid request for %s %d: %v", e.Kind, e.ID, e.Err)
}

// IsResourceUnbound reports whether err is an ErrResourceUnbound at any
// wrap depth.
func IsResourceUnbound(err error) bool {
	_, ok := errors.Cause(err).(*ErrResourceUnbound)
	return ok
}

// IsUnsupported reports whether err is an ErrUnsupported or
// ErrUnsupportedResource at any wrap depth.
func IsUnsupported(err error) bool {
	switch errors.Cause(err).(type) {
	case *ErrUnsupported, *ErrUnsupportedResource:
		return true
	}
	return false
}

// IsInvalidRequest reports whether err is an ErrInvalidRequest at any wrap
// depth.
func IsInvalidRequest(err error) bool {
	_, ok := errors.Cause(err).(*ErrInvalidRequest)
	return ok
}
