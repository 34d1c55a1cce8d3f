// Package camera owns the live camera stream used for document scanning.
//
// A [Platform] enumerates video inputs and opens a [Stream] for a set of
// [Constraints]. A [Session] is the state machine on top of it:
//
//	idle ──Start──▶ starting ──▶ active
//	                    │
//	                    └──────▶ failed
//
// A session holds at most one stream. Start always releases the previous
// stream before asking the platform for a new one, and SwitchFacing is a full
// Stop followed by Start because a different facing means a different device.
//
// Frames are only reachable through [Session.Frame]; callers never touch the
// stream directly.
package camera
