// Package workflow advances transcript sessions through the processing
// pipeline.
//
// The Manager polls the session store, reclaims stale work via heartbeats,
// and feeds claimed sessions into the pipeline (merge, correction, cleanup
// enforcement, role resolution) while capturing progress and failure
// metadata. It also aggregates session stats and emits notifications when
// sessions complete, degrade, or fail.
//
// The manager runs a configurable pool of workers. Each worker claims one
// pending session at a time with a compare-and-swap update, so two workers
// never process the same session; heartbeats stamped during processing let a
// restarted daemon reclaim sessions a crashed worker left behind.
package workflow
