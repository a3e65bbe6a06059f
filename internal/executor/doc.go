// Package executor delivers rendered instructions to sprites through the
// sprite gateway.
//
// Each matched automation becomes exactly one outbound HTTP call. The call
// is fire-and-forget with respect to the remote side effect: a successful
// result means the gateway accepted the request, not that the instruction
// finished running. Output capture, retries and backoff are deliberately
// out of scope.
//
// ExecuteAll fans a batch of automations out concurrently and joins on all
// of them, so one slow or failing sprite never blocks or aborts its
// siblings. Results are collected per automation and returned in full for
// the caller to aggregate.
package executor
