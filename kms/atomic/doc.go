package atomic

// The atomic package implements tinykms's transactional update engine for
// display-pipeline configuration. A client begins a transaction, stages and
// mutates shadow copies of the resources it wants to change (surfaces and
// outputs), checks the whole batch, and only then commits it; end releases
// everything regardless of outcome.
//
// The engine never mutates a live resource directly. Each touched resource
// gets a lazily-created shadow state snapshotted from its live state; the
// defining operation of commit is an in-place swap of the resource's
// live-state slot with the transaction's shadow slot. After the swap the
// transaction's slot holds what used to be live (released at End) and the
// resource holds what was staged. A resource is therefore never observed
// half-updated: either the swap happened or the live state is untouched.
//
// Commit runs two passes, surfaces then outputs. Within a pass the first
// failure stops the commit, and the other pass does not run; resources
// already committed in the same pass stay committed. This is a
// partial-failure model: only per-resource application is atomic. Callers
// decide whether to retry; End is always required and never fails.
//
// Framebuffers are shared with reference counting. The invariant the
// engine preserves on every path, including abort and partial failure, is
// that a framebuffer's count equals its number of live bindings (plus,
// transiently, one per transaction shadow holding it). References move at
// three points only: attaching to a shadow, the commit-time settlement
// (transfer on success, drop on failure), and shadow release at End.
//
// Per-kind behavior (how a surface stages, checks and commits versus an
// output) is supplied through the StateOps interface; the engine loops are
// generic over it and a driver may override either kind's ops.
