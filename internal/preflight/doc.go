// Package preflight provides readiness checks for external services
// and filesystem paths that Burnish depends on.
//
// These checks run in two contexts:
//   - The daemon runs RunAll at startup so a misconfigured install fails
//     loudly before the first session is claimed.
//   - The CLI "burnish status" command uses the same results to display
//     service health.
//
// Each check is gated by its config toggle; disabled features are skipped.
// The correction model and cache checks are advisory: both collaborators can
// fail during processing without failing sessions, so their preflight results
// warn rather than block.
package preflight
