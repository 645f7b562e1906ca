// Package roles resolves raw speaker identifiers to canonical conversation
// roles.
//
// SpeakerKey is the one normalization function for speaker identifiers;
// manual labeling, automatic inference, and lookup all go through it, so the
// same name always lands on the same persisted assignment. Manual labels beat
// automatic inference and are never overwritten by it. The question and
// word-share heuristic only fires for a two-party conversation with both
// speakers unlabeled, and resolves ties to unknown rather than guessing.
package roles
