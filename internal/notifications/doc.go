// Package notifications pushes session lifecycle events to operators.
//
// The ntfy notifier is the only transport today: it POSTs to the configured
// topic and becomes a no-op when no topic is set, so callers never need to
// check whether notifications are enabled. Per-event toggles let operators
// subscribe to completions, degraded runs, and failures independently.
//
// Workflow code depends only on the Service interface, so alternative
// transports slot in without touching the pipeline.
package notifications
