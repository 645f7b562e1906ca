// Package daemon coordinates the long-running Burnish process.
//
// It wires configuration, session storage, the workflow manager, and the
// HTTP API into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon owns startup and shutdown ordering; the
// workflow package owns session processing and the api package owns the
// operations both the HTTP surface and the CLI share.
package daemon
