// Package main hosts the Burnish CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into session
// store operations, role overrides, transcript display, log tailing, and
// configuration scaffolding. Commands share the daemon's database directly
// through the same session service the HTTP API uses, so the CLI works
// whether or not the daemon is running.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
