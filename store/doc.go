// Package store owns durable persona, meeting, and message state behind
// explicit interfaces injected into the orchestration core. Nothing here is
// a process-wide singleton.
//
// The message table carries a per-meeting sequence assigned inside the
// append transaction, which gives every meeting a single global ordering of
// appended messages. Concurrent turns against the same meeting rely on
// that contract; the core itself does not coordinate them.
package store
