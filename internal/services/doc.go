// Package services defines shared utilities consumed by the pipeline phases
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, phase names, and correlation
//     identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent (degradable collaborator faults vs
//     infrastructure failures).
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across components.
package services
