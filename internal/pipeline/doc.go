// Package pipeline runs the transcript post-processing sequence for one
// session: merge raw segments, request the LLM correction, parse the reply,
// enforce the deterministic cleanup contract, resolve speaker roles, and
// persist the cleaned transcript.
//
// The correction call is the only collaborator and the only suspension
// point. Its failure — unavailable, timed out, or an unusable reply — never
// fails the session: the run degrades onto the fallback branch, where the
// cleanup enforcer works from the merged segments directly and roles come
// from stored assignments or the conversation heuristic. A run is complete
// when every raw segment is represented in cleaned output, whichever branch
// produced it.
package pipeline
