// Package orchestrator runs model regeneration off the interactive path.
//
// A single event-loop goroutine (Run) owns the orchestration state: whether a
// run is in flight, the one pending request, and the currently published
// Assembly. Start never blocks. While a run is in flight, newer requests
// replace the pending one, so a burst of edits collapses into at most one
// extra run carrying the latest parameters. Pipelines execute on a worker
// pool and report back to the loop, which publishes successes, keeps the last
// good Assembly on failure, and forwards both through an outbox so a slow
// consumer never stalls the loop.
package orchestrator
