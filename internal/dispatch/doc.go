// Package dispatch orchestrates one inbound webhook end to end: adapter
// resolution, signature validation, payload parsing, catalog filtering
// and concurrent execution of the surviving automations.
//
// Validation always runs before the catalog is touched; a request that
// fails authenticity never causes a catalog read or an execution. The
// catalog itself is re-read on every dispatch, so there is no cached
// copy to invalidate when automations change.
package dispatch
