// Package transcript defines the transcript data model shared across the
// pipeline: raw ASR segments, the transient merged shape handed to
// correction, persisted cleaned segments, and speaker role assignments. It
// also owns the pre-correction merge pass that heals the ASR engine's
// over-fragmentation of continuous speech.
package transcript
