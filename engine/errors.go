package engine

import "errors"

// ErrBroadcastFailed is treated as a StorageIo-class fatal condition: the
// source silently drops fills whose publish returns false even though
// their effect on the book is already permanent; this repo aborts
// instead (see the resolved design note on broadcast failure handling).
var ErrBroadcastFailed = errors.New("engine: broadcast failed")

// ErrReplayMismatch is returned by Recover when a snapshot entry's shape
// is malformed; recovery aborts rather than guess at the missing data.
var ErrReplayMismatch = errors.New("engine: replay mismatch")

// ErrAborted is returned by AddOrder/CancelOrder/TakeSnapshot once the
// engine has recorded a fatal storage or broadcast error: per §5, an I/O
// failure must stop the engine from accepting further commands rather
// than proceed with partial durability.
var ErrAborted = errors.New("engine: aborted after fatal error")
