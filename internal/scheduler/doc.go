// Package scheduler maintains the live set of cron-triggered automations.
//
// The automation catalog is the single source of truth; the scheduler's
// entry map is only a cache of active timers. Reconcile re-reads the
// catalog, stops timers whose automation disappeared, and (re)registers a
// fresh timer for every cron automation it finds. Re-registering an
// already-active id stops the old timer first, so there is never more
// than one live timer per automation.
//
// Reconciliation is single-writer: a mutex serialises it against itself
// and against concurrent firings inspecting the entry map.
package scheduler
