// Package correction builds the per-session correction request and decodes
// whatever the model sends back.
//
// The request is a single prompt carrying the full merged transcript as
// numbered speaker-tagged lines, with the reply requested as strict JSON.
// Models do not reliably honor that contract, so ParseReply works through
// ranked fallback strategies: the structured JSON shape, then a
// reconstructed transcript with inline speaker prefixes, then per-line label
// extraction, and finally a tagged parse failure that routes the pipeline
// onto the deterministic fallback path. Corrected text is only trusted when
// the reply's segment count matches the input exactly; a count within 20%
// still rescues the speaker role classification.
//
// The optional redis-backed Cache memoizes raw replies so reprocessing an
// unchanged session skips the provider call. Cache failures are misses,
// never errors.
package correction
