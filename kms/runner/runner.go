// Package runner wraps the five-step transaction protocol in one call for
// clients that stage their whole batch up front.
package runner

import (
	"github.com/juju/errors"

	"github.com/tinykms/tinykms/kms/atomic"
	"github.com/tinykms/tinykms/kms/latches"
)

// Run executes one atomic update to completion on the caller's goroutine:
// begin, build the batch through the callback, latch every touched
// resource, check, commit, end. The latches guarantee no concurrent Run
// interleaves with this one on any shared resource.
//
// A build or check error abandons the transaction before anything reaches
// the hardware; every live state stays untouched. A commit error is
// returned as-is, with the partial-failure semantics of Txn.Commit.
func Run(e *atomic.Engine, l *latches.Latches, flags uint32, build func(*atomic.Txn) error) error {
	txn, err := e.Begin(flags)
	if err != nil {
		return errors.Trace(err)
	}
	defer txn.End()

	if err := build(txn); err != nil {
		return errors.Trace(err)
	}

	keys := latches.Keys(txn.Touched())
	l.WaitForLatches(keys)
	defer l.ReleaseLatches(keys)

	if err := txn.Check(); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(txn.Commit())
}
