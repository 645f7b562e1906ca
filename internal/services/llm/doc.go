// Package llm provides an OpenRouter-compatible chat client for transcript
// correction.
//
// This package is used by:
//   - Correction stage: one request per session carrying the merged transcript
//   - Preflight: verify the configured key and model before the daemon starts
//
// # Request Shape
//
// The client sends a system prompt and a user prompt to the configured model
// with JSON output requested. The reply content comes back verbatim; the
// correction parser owns interpretation, since models do not reliably honor
// the requested format.
//
// # Configuration
//
// Requires api_key and model, optionally base_url, referer, title, timeout,
// and retry attempts.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Correct: send the correction prompts, receive the raw reply.
// Client.HealthCheck: verify API key and model availability.
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty replies, and network
// timeouts with exponential backoff (base 2s, max 30s), honoring Retry-After
// when present. Total attempts are capped at two: one initial call plus one
// retry. Context cancellation aborts retries immediately.
//
// # Degradation
//
// Terminal failures come back wrapped in the services error taxonomy:
// timeouts as ErrTimeout, everything else as ErrCollaborator. Both classes
// route the pipeline onto the deterministic fallback path instead of failing
// the session.
package llm
